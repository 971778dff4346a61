// Package belief implements the particle-based belief representation:
// an unordered multiset of owned hidden-state samples, sampled
// uniformly with replacement.
package belief

import (
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
)

// Belief is a multiset of State particles, generic over the domain's
// hidden-state type S. The belief owns every particle it holds: Free
// must be called exactly once before the belief (or its owning VNode)
// is discarded.
type Belief[S any] struct {
	particles []S
}

// New returns an empty Belief.
func New[S any]() Belief[S] {
	return Belief[S]{}
}

// AddSample takes ownership of state and adds it to the belief.
func (b *Belief[S]) AddSample(state S) {
	b.particles = append(b.particles, state)
}

// Size returns the number of particles currently held.
func (b *Belief[S]) Size() int {
	return len(b.particles)
}

// At returns the particle at index i, for iteration. The returned value
// is still owned by the belief; callers must not Free it directly.
func (b *Belief[S]) At(i int) S {
	return b.particles[i]
}

// CreateSample draws a particle uniformly from the belief (with
// replacement) and returns a fresh copy of it via sim.Copy, which the
// caller now owns. Panics if the belief is empty; callers must check
// Size first.
func (b *Belief[S]) CreateSample(sim simulator.Simulator[S], r *rng.Source) S {
	if len(b.particles) == 0 {
		panic("belief: CreateSample called on an empty belief")
	}
	idx := r.UniformIndex(len(b.particles))
	return sim.Copy(b.particles[idx])
}

// MoveFrom transfers ownership of every particle in other into b,
// leaving other empty. No copies are made.
func (b *Belief[S]) MoveFrom(other *Belief[S]) {
	b.particles = append(b.particles, other.particles...)
	other.particles = nil
}

// Free releases every particle held via sim.Free, and empties the
// belief. The belief is safe to reuse (e.g. after a VNode is recycled)
// once Free has returned.
func (b *Belief[S]) Free(sim simulator.Simulator[S]) {
	for _, p := range b.particles {
		sim.Free(p)
	}
	b.particles = b.particles[:0]
}

// Reset drops all particles without freeing them. Used only when
// ownership has already been transferred elsewhere (e.g. after
// MoveFrom's source side, which already nils its own slice), exposed
// so pool recyclers can clear a belief defensively without a Simulator
// reference on hand.
func (b *Belief[S]) Reset() {
	b.particles = b.particles[:0]
}
