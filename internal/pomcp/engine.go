// Package pomcp implements the online POMCP planner: the search loop
// that repeatedly simulates trajectories through a belief-indexed tree
// (internal/tree), backs up Monte Carlo returns, and advances the root
// belief as real actions and observations are observed.
package pomcp

import (
	"math"

	"k8s.io/klog/v2"

	"github.com/mpetrov/pomcpGo/internal/history"
	"github.com/mpetrov/pomcpGo/internal/pool"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
	"github.com/mpetrov/pomcpGo/internal/tree"
)

// Engine is a single-threaded POMCP planner over a fixed Simulator[S].
// It is not safe for concurrent use; internal/experiment runs many
// Engines concurrently instead, one per goroutine.
type Engine[S any] struct {
	sim simulator.Simulator[S]
	cfg Config
	mgr *tree.Manager[S]
	r   *rng.Source

	root pool.Handle
	hist history.History
}

// NewEngine constructs an Engine with a freshly populated root belief
// drawn from sim.CreateStartState.
func NewEngine[S any](sim simulator.Simulator[S], cfg Config, r *rng.Source) *Engine[S] {
	e := &Engine[S]{
		sim:  sim,
		cfg:  cfg,
		mgr:  tree.NewManager[S](sim, 0),
		r:    r,
		hist: history.New(),
	}
	e.root = e.mgr.Create(sim.NumActions(), cfg.SmartTreeCount, cfg.SmartTreeValue)
	root := e.mgr.At(e.root)
	for root.Belief.Size() < cfg.NumParticles {
		root.Belief.AddSample(e.createValidatedStart())
	}
	return e
}

func (e *Engine[S]) createValidatedStart() S {
	s := e.sim.CreateStartState(e.r)
	if e.cfg.Debug {
		if err := e.sim.Validate(s); err != nil {
			klog.Fatalf("pomcp: start state failed validation: %+v", err)
		}
	}
	return s
}

// History returns the sequence of (action, observation) pairs applied so
// far via Update.
func (e *Engine[S]) History() *history.History {
	return &e.hist
}

// BeliefSize returns the number of particles currently held at the root.
func (e *Engine[S]) BeliefSize() int {
	return e.mgr.At(e.root).Belief.Size()
}

// RootActionMeans returns the current backed-up mean return for every
// action at the root, indexed by action (0 for actions never visited).
// Exposed for debug tracing (internal/display.RankedActions).
func (e *Engine[S]) RootActionMeans() []float64 {
	qs := e.mgr.At(e.root).Qs
	means := make([]float64, len(qs))
	for a := range qs {
		means[a] = qs[a].Value.Mean()
	}
	return means
}

// SelectAction runs cfg.NumSimulations simulations from the current root
// belief and returns the best action found.
func (e *Engine[S]) SelectAction() int {
	for i := 0; i < e.cfg.NumSimulations; i++ {
		e.RunSingleSimulation()
	}
	return e.bestRootAction()
}

// RunSingleSimulation draws one particle from the root belief and
// descends the tree once, backing up the result. Exported so tests and
// the experiment driver can interleave simulations with other work
// (e.g. enforcing a wall-clock budget between calls) instead of only
// ever running a fixed count via SelectAction.
func (e *Engine[S]) RunSingleSimulation() {
	root := e.mgr.At(e.root)
	if root.Belief.Size() == 0 {
		root.Belief.AddSample(e.createValidatedStart())
	}
	state := root.Belief.CreateSample(e.sim, e.r)
	defer e.sim.Free(state)

	simHist := e.hist.Clone()
	e.simulateV(state, e.root, 0, &simHist)
}

// bestRootAction picks the visited root child with the largest mean,
// falling back to a uniform legal (or fully random) action if no
// simulation ever produced a visited child.
func (e *Engine[S]) bestRootAction() int {
	v := e.mgr.At(e.root)
	visited := make([]int, 0, len(v.Qs))
	for a := range v.Qs {
		if v.Qs[a].Value.Count() > 0 {
			visited = append(visited, a)
		}
	}
	if len(visited) == 0 {
		return e.fallbackAction(v)
	}
	return v.GreedyAction(visited)
}

func (e *Engine[S]) fallbackAction(v *tree.VNode[S]) int {
	if v.Belief.Size() > 0 {
		sample := v.Belief.At(e.r.UniformIndex(v.Belief.Size()))
		if legal := e.sim.GenerateLegal(sample, &e.hist); len(legal) > 0 {
			return legal[e.r.UniformIndex(len(legal))]
		}
	}
	return e.r.UniformIndex(e.sim.NumActions())
}

// tailEntry records one action taken during a simulation, at stepsBelow
// levels below the VNode currently backing up, for the RAVE/AMAF update.
type tailEntry struct {
	action     int
	stepsBelow int
}

// simulateV descends one level of the search tree from state at vnode h,
// backs up the Monte Carlo return, and returns it together with the
// tail of actions taken at or below h during this simulation (used for
// the RAVE/AMAF update; nil when UseRAVE is off).
func (e *Engine[S]) simulateV(state S, h pool.Handle, depth int, simHist *history.History) (float64, []tailEntry) {
	if depth >= e.cfg.MaxDepth {
		return 0, nil
	}

	v := e.mgr.At(h)
	if v.Value.Count() < e.cfg.ExpandCount {
		r := e.rollout(state, depth, simHist.Clone())
		v.Value.Add(r)
		return r, nil
	}

	legal := e.legalActions(state, simHist)
	a := v.SelectUCB(e.cfg.ExplorationConstant, legal)
	q := &v.Qs[a]

	obs, reward, terminal := e.sim.Step(e.r, state, a)
	if e.cfg.Debug {
		if err := e.sim.Validate(state); err != nil {
			klog.Fatalf("pomcp: post-step state failed validation: %+v", err)
		}
	}

	var total float64
	var childTail []tailEntry
	if terminal {
		total = reward
	} else {
		child, existed := q.Child(obs)
		if !existed {
			child = e.mgr.Create(e.sim.NumActions(), e.cfg.SmartTreeCount, e.cfg.SmartTreeValue)
			q.SetChild(obs, child)
		}
		e.mgr.At(child).Belief.AddSample(e.sim.Copy(state))

		simHist.Append(a, obs)
		var childReturn float64
		childReturn, childTail = e.simulateV(state, child, depth+1, simHist)
		simHist.Truncate(simHist.Size() - 1)

		total = reward + e.sim.Discount()*childReturn
	}

	q.Value.Add(total)
	v.Value.Add(total)

	var tail []tailEntry
	if e.cfg.UseRAVE {
		tail = make([]tailEntry, 0, len(childTail)+1)
		tail = append(tail, tailEntry{action: a, stepsBelow: 0})
		for _, te := range childTail {
			tail = append(tail, tailEntry{action: te.action, stepsBelow: te.stepsBelow + 1})
		}
		for _, te := range tail {
			if te.action >= 0 && te.action < len(v.Qs) {
				v.Qs[te.action].AMAF.Add(total * math.Pow(e.cfg.RAVEDiscount, float64(te.stepsBelow)))
			}
		}
	}
	return total, tail
}

// legalActions returns the candidate action set for state, preferring
// the PGS-shaped legal set when PGS is enabled and the Simulator
// implements it.
func (e *Engine[S]) legalActions(state S, h *history.History) []int {
	if e.cfg.UsePGS {
		if pg, ok := pgsOf(e.sim); ok {
			if legal := pg.PGSLegal(state, h); len(legal) > 0 {
				return legal
			}
		}
	}
	return e.sim.GenerateLegal(state, h)
}

// rollout runs a default policy to termination or cfg.MaxDepth,
// returning its discounted return. h is consumed by value; the caller's
// own history is never mutated by a rollout.
func (e *Engine[S]) rollout(state S, depth int, h history.History) float64 {
	var pg simulator.PGSSimulator[S]
	usePGS := false
	if e.cfg.UsePGS {
		pg, usePGS = pgsOf(e.sim)
	}

	total := 0.0
	discount := 1.0
	for d := depth; d < e.cfg.MaxDepth; d++ {
		actions := e.sim.GeneratePreferred(state, &h)
		if len(actions) == 0 && usePGS {
			actions = pg.PGSLegal(state, &h)
		}
		if len(actions) == 0 {
			actions = e.sim.GenerateLegal(state, &h)
		}
		if len(actions) == 0 {
			actions = fullActionSet(e.sim.NumActions())
		}
		a := actions[e.r.UniformIndex(len(actions))]

		var before float64
		if usePGS {
			before = pg.Potential(state)
		}
		obs, reward, terminal := e.sim.Step(e.r, state, a)
		step := reward
		if usePGS {
			step = pg.Potential(state) - before
		}
		total += discount * step
		h.Append(a, obs)
		discount *= e.sim.Discount()
		if terminal {
			break
		}
	}
	return total
}

func fullActionSet(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Update advances the engine by one real step. If
// ReuseTree is set and the chosen action's observation child already
// exists, that subtree is promoted to root; otherwise a fresh root is
// created. The old root (minus any promoted subtree) is freed, and the
// new root's belief is invigorated.
func (e *Engine[S]) Update(action, observation int, reward float64) {
	e.hist.Append(action, observation)

	oldRoot := e.root
	v := e.mgr.At(oldRoot)

	var newRoot pool.Handle
	reused := false
	if e.cfg.ReuseTree && action >= 0 && action < len(v.Qs) {
		if child, ok := v.Qs[action].Child(observation); ok {
			newRoot = child
			delete(v.Qs[action].Children, observation)
			reused = true
		}
	}
	if !reused {
		newRoot = e.mgr.Create(e.sim.NumActions(), e.cfg.SmartTreeCount, e.cfg.SmartTreeValue)
	}
	e.mgr.Free(oldRoot)
	e.root = newRoot
	e.invigorate()
}

// invigorate repairs and tops up the root belief to its target particle
// count (particle invigoration and its failure-mode fallback).
func (e *Engine[S]) invigorate() {
	v := e.mgr.At(e.root)
	target := e.cfg.NumParticles

	if e.cfg.UseTransforms && v.Belief.Size() > 0 && v.Belief.Size() < target {
		lastObs, _ := e.hist.LastObservation()
		maxAttempts := e.cfg.NumTransforms
		if e.cfg.MaxAttempts < maxAttempts {
			maxAttempts = e.cfg.MaxAttempts
		}
		for attempts := 0; v.Belief.Size() < target && attempts < maxAttempts; attempts++ {
			idx := e.r.UniformIndex(v.Belief.Size())
			candidate := e.sim.Copy(v.Belief.At(idx))
			if e.sim.LocalMove(e.r, candidate, &e.hist, lastObs) {
				if e.cfg.Debug {
					if err := e.sim.Validate(candidate); err != nil {
						klog.Fatalf("pomcp: local_move produced invalid state: %+v", err)
					}
				}
				v.Belief.AddSample(candidate)
			} else {
				e.sim.Free(candidate)
			}
		}
	}

	if v.Belief.Size() < target {
		if v.Belief.Size() == 0 {
			klog.V(2).Infof("pomcp: belief exhausted after %d steps, resampling from prior", e.hist.Size())
		}
		for v.Belief.Size() < target {
			v.Belief.AddSample(e.createValidatedStart())
		}
	}
}
