// Package tree implements the action/observation search tree: VNodes
// (value/observation/belief nodes) each holding one QNode per action,
// QNodes each holding sparse VNode children indexed by observation.
// Nodes are drawn from and recycled through a pool.Pool rather than
// allocated per simulation.
package tree

import (
	"math"

	"github.com/mpetrov/pomcpGo/internal/belief"
	"github.com/mpetrov/pomcpGo/internal/pool"
	"github.com/mpetrov/pomcpGo/internal/simulator"
	"github.com/mpetrov/pomcpGo/internal/stats"
)

// NoChild is the zero pool.Handle, meaning "this observation slot has
// never been visited".
const NoChild = pool.Handle(0)

// QNode is the per-action node under a VNode.
type QNode[S any] struct {
	// Value is the Monte Carlo return estimate for taking this action.
	Value stats.Statistic
	// AMAF is the all-moves-as-first estimate, updated only when RAVE is
	// enabled.
	AMAF stats.Statistic
	// Children maps observation -> child VNode handle. Absent entries
	// (map miss) mean the slot has never been created.
	Children map[int]pool.Handle
}

// Child returns the VNode handle for the given observation, and whether
// it has been created yet.
func (q *QNode[S]) Child(observation int) (pool.Handle, bool) {
	h, ok := q.Children[observation]
	return h, ok
}

// SetChild records the VNode handle created for the given observation.
func (q *QNode[S]) SetChild(observation int, h pool.Handle) {
	if q.Children == nil {
		q.Children = make(map[int]pool.Handle)
	}
	q.Children[observation] = h
}

// reset clears a QNode back to its zero state, for reuse from the pool.
func (q *QNode[S]) reset() {
	q.Value.Clear()
	q.AMAF.Clear()
	q.Children = nil
}

// VNode is the observation/belief node: one Statistic for
// its own backed-up value, a particle Belief, and one QNode per legal
// action in the domain's full action space.
type VNode[S any] struct {
	Value  stats.Statistic
	Belief belief.Belief[S]
	Qs     []QNode[S]
}

// Initialize resets v's statistics and sizes its QNode array to
// numActions, reusing the backing array when capacity allows. If
// priorCount > 0, every QNode's Value statistic starts with that many
// pseudo-samples of priorValue.
func (v *VNode[S]) Initialize(numActions, priorCount int, priorValue float64) {
	v.Value.Clear()
	v.Belief.Reset()
	if cap(v.Qs) >= numActions {
		v.Qs = v.Qs[:numActions]
	} else {
		v.Qs = make([]QNode[S], numActions)
	}
	for i := range v.Qs {
		v.Qs[i].reset()
		if priorCount > 0 {
			v.Qs[i].Value.SetPrior(priorCount, priorValue)
		}
	}
}

// SelectUCB chooses the action to descend via UCB1:
//
//	a* = argmax_a [ mean(Q(v,a)) + c*sqrt(log(count(v))/count(Q(v,a))) ]
//
// Unvisited actions (count == 0) are preferred, in declaration order. If
// c == 0, selection is pure greedy on mean. Ties are broken by the
// lowest action index. legal, if non-empty, restricts the candidate
// actions (falling back to the full action set when legal is empty at
// selection time).
func (v *VNode[S]) SelectUCB(c float64, legal []int) int {
	candidates := legal
	if len(candidates) == 0 {
		candidates = allActions(len(v.Qs))
	}

	vCount := v.Value.Count()
	bestAction := -1
	bestScore := math.Inf(-1)
	for _, a := range candidates {
		q := &v.Qs[a]
		n := q.Value.Count()
		if n == 0 {
			// Unvisited actions are strictly preferred, in declaration
			// order: the first one encountered wins outright.
			return a
		}
		var score float64
		if c == 0 {
			score = q.Value.Mean()
		} else {
			score = q.Value.Mean() + c*math.Sqrt(math.Log(float64(vCount))/float64(n))
		}
		if score > bestScore {
			bestScore = score
			bestAction = a
		}
	}
	if bestAction < 0 {
		// candidates was empty; fall back to the full action set.
		return v.SelectUCB(c, nil)
	}
	return bestAction
}

// GreedyAction returns the candidate action with the largest mean,
// breaking ties by larger visit count then by lowest action index
// (the tie-break rule used for the final action choice).
func (v *VNode[S]) GreedyAction(candidates []int) int {
	if len(candidates) == 0 {
		candidates = allActions(len(v.Qs))
	}
	best := candidates[0]
	for _, a := range candidates[1:] {
		if betterAction(&v.Qs[a], &v.Qs[best]) {
			best = a
		}
	}
	return best
}

func betterAction[S any](a, best *QNode[S]) bool {
	am, bm := a.Value.Mean(), best.Value.Mean()
	if am != bm {
		return am > bm
	}
	ac, bc := a.Value.Count(), best.Value.Count()
	return ac > bc
}

func allActions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Manager owns a pool of VNodes for a single Simulator[S] and handles
// recursive creation/destruction, matching the ownership rule that:
// a VNode exclusively owns its belief particles and QNodes; a QNode
// exclusively owns its child VNodes.
type Manager[S any] struct {
	pool *pool.Pool[VNode[S]]
	sim  simulator.Simulator[S]
}

// NewManager returns a Manager backed by a pool capped at capacity slots
// (<=0 for unbounded).
func NewManager[S any](sim simulator.Simulator[S], capacity int) *Manager[S] {
	return &Manager[S]{pool: pool.New[VNode[S]](capacity), sim: sim}
}

// Create allocates (or recycles) a VNode sized for numActions, with the
// given QNode value priors.
func (m *Manager[S]) Create(numActions, priorCount int, priorValue float64) pool.Handle {
	h := m.pool.Get(func(v *VNode[S]) { *v = VNode[S]{} })
	m.At(h).Initialize(numActions, priorCount, priorValue)
	return h
}

// At dereferences a VNode handle.
func (m *Manager[S]) At(h pool.Handle) *VNode[S] {
	return m.pool.At(h)
}

// Free recursively releases h: its belief particles, every QNode's
// children (post-order), and finally returns h's slot to the pool.
func (m *Manager[S]) Free(h pool.Handle) {
	v := m.At(h)
	v.Belief.Free(m.sim)
	for i := range v.Qs {
		q := &v.Qs[i]
		for _, child := range q.Children {
			m.Free(child)
		}
		q.reset()
	}
	v.Qs = v.Qs[:0]
	v.Value.Clear()
	m.pool.Put(h)
}

// Stats returns (allocated, inUse) slot counts, for diagnostics/tests.
func (m *Manager[S]) Stats() (allocated, inUse int) {
	return m.pool.Len(), m.pool.InUse()
}
