// Package rng provides the engine-owned uniform random source used
// throughout the planner. Nothing in this module reads from the
// process-wide math/rand default source: every sampling decision is
// threaded explicitly through a *Source, so two engines seeded alike
// produce identical simulations.
package rng

import (
	"crypto/rand"
	"encoding/binary"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is a seeded uniform random generator. It wraps a
// golang.org/x/exp/rand.Rand, the same generator/source pairing
// samuelfneumann-GoLearn drives its gonum/stat/distuv distributions with.
type Source struct {
	r *xrand.Rand
}

// New creates a Source seeded with the given value.
func New(seed uint64) *Source {
	return &Source{r: xrand.New(xrand.NewSource(seed))}
}

// NewFromEntropy seeds a Source from system entropy. Used when RNG_SEED
// is unset.
func NewFromEntropy() *Source {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is exceptional; fall back to a fixed seed
		// rather than leaving the source unseeded.
		return New(1)
	}
	return New(binary.LittleEndian.Uint64(buf[:]))
}

// Intn returns a uniform pseudo-random integer in [0, n).
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return s.r.Intn(n)
}

// Float64 returns a uniform pseudo-random float in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Float32 returns a uniform pseudo-random float in [0, 1).
func (s *Source) Float32() float32 {
	return s.r.Float32()
}

// Uniform returns a distuv.Uniform distribution over [lo, hi) backed by
// this source, for callers that want gonum's distribution API rather than
// the raw Float64 helper.
func (s *Source) Uniform(lo, hi float64) distuv.Uniform {
	return distuv.Uniform{Min: lo, Max: hi, Src: s.r}
}

// UniformIndex draws an index in [0, n) via this Source's distuv.Uniform
// distribution. Used for every uniform pick over belief particles and
// over legal/preferred action sets, instead of sampling against Intn
// directly.
func (s *Source) UniformIndex(n int) int {
	if n <= 0 {
		panic("rng: UniformIndex called with n <= 0")
	}
	idx := int(s.Uniform(0, float64(n)).Rand())
	switch {
	case idx < 0:
		return 0
	case idx >= n:
		return n - 1
	default:
		return idx
	}
}

// Child derives a new, independent Source from this one. Used so each
// run can draw its environment stream deterministically from its own
// planner Source without the two sharing mutable state.
func (s *Source) Child() *Source {
	return New(s.r.Uint64())
}

// Uint64 returns a raw uniform pseudo-random uint64, for callers that
// need a seed value rather than a new Source (e.g. cmd/pomcp deriving a
// base seed from entropy when RNG_SEED is unset).
func (s *Source) Uint64() uint64 {
	return s.r.Uint64()
}
