// Package simulator defines the capability record a hidden-state domain
// must implement to plug into the POMCP engine. The engine is generic
// over the state type S and never introspects it: all state
// semantics live in the simulator, never in internal/pomcp.
package simulator

import (
	"github.com/mpetrov/pomcpGo/internal/history"
	"github.com/mpetrov/pomcpGo/internal/rng"
)

// Simulator is the contract any POMDP domain must satisfy to be searched
// by the engine. S is the domain's hidden-state representation; the
// engine only ever holds states it received from Simulator calls and
// pairs every Copy/CreateStartState with exactly one Free.
type Simulator[S any] interface {
	// CreateStartState draws a new state from the prior.
	CreateStartState(r *rng.Source) S

	// Copy returns an independent copy of s. The engine owns the result.
	Copy(s S) S

	// Free releases a state the engine no longer needs. A no-op is a
	// valid implementation when S carries no externally owned resources.
	Free(s S)

	// Validate checks that s is an internally consistent state. Called
	// only from optional invariant checks; implementations
	// that have nothing to check should simply return nil.
	Validate(s S) error

	// Step advances state in place, applying action, and returns the
	// resulting observation, reward, and whether the episode has ended.
	Step(r *rng.Source, state S, action int) (observation int, reward float64, terminal bool)

	// NumActions is the size of the full, fixed action space.
	NumActions() int

	// NumObservations is the size of the declared observation range.
	// Children are created sparsely; not every observation need ever
	// occur in practice.
	NumObservations() int

	// Discount is the per-step reward discount factor, in (0, 1].
	Discount() float64

	// RewardRange is an upper bound on |reward| for any single step,
	// used by convention to scale the exploration constant.
	RewardRange() float64

	// GenerateLegal returns the indices of actions legal in state, given
	// the history so far. A nil or empty result means "no restriction",
	// and callers fall back to the full action space.
	GenerateLegal(state S, h *history.History) []int

	// GeneratePreferred returns a rollout-biasing subset of actions. A
	// nil or empty result means "no preference": rollouts fall back to
	// GenerateLegal, then the full action set.
	GeneratePreferred(state S, h *history.History) []int

	// LocalMove mutates state into another hidden state consistent with
	// history and lastObservation, for particle invigoration. It
	// returns whether the proposed move is acceptable; on rejection the
	// caller discards the (possibly already mutated) state.
	LocalMove(r *rng.Source, state S, h *history.History, lastObservation int) bool
}

// PGSSimulator is the optional "Preferred Generator Search" extension.
// A Simulator that also implements PGSSimulator lets the
// engine, when Config.UsePGS is set, prune the legal set by potential and
// replace rollout rewards with potential deltas.
type PGSSimulator[S any] interface {
	// Potential scores a state; only relative differences between states
	// matter; the engine never compares this against raw reward.
	Potential(state S) float64

	// PGSLegal returns the legal-action subset pruned of actions the
	// potential function marks as certainly harmful for this state
	// (e.g. redundant sensing or pushing into a known static obstacle).
	// Empty means "defer to GenerateLegal".
	PGSLegal(state S, h *history.History) []int
}
