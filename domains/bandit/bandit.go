// Package bandit implements the smallest possible POMDP: a stateless,
// fully-observed k-armed bandit (two arms by default). It exists to sanity-check action
// selection and UCB convergence in isolation from belief tracking, with
// no hidden state at all.
package bandit

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mpetrov/pomcpGo/internal/display"
	"github.com/mpetrov/pomcpGo/internal/domainparams"
	"github.com/mpetrov/pomcpGo/internal/history"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
)

// State is unused: the bandit has no hidden state to track, only an arm
// count and its payouts. Every episode is exactly one step.
type State struct{}

// Domain is a simulator.Simulator[State] with len(Payouts) levers, the i-th
// paying Payouts[i] deterministically and then terminating.
type Domain struct {
	Payouts []float64
}

// New constructs a bandit from a domain parameter string: "arms=2" sets
// the arm count (linearly increasing payouts 0, 1/(n-1), ..., 1 unless
// overridden by "high=" for the top payout). Unrecognized parameters are
// rejected.
func New(config string) (*Domain, error) {
	params := domainparams.NewFromConfigString(config)
	arms, err := domainparams.PopParamOr(params, "arms", 2)
	if err != nil {
		return nil, err
	}
	high, err := domainparams.PopParamOr(params, "high", 1.0)
	if err != nil {
		return nil, err
	}
	if arms < 2 {
		return nil, errors.Errorf("bandit: arms must be >= 2, got %d", arms)
	}
	if len(params) > 0 {
		return nil, errors.Errorf("bandit: unrecognized parameters: %v", params)
	}
	payouts := make([]float64, arms)
	for i := range payouts {
		payouts[i] = high * float64(i) / float64(arms-1)
	}
	return &Domain{Payouts: payouts}, nil
}

func (d *Domain) CreateStartState(r *rng.Source) State { return State{} }
func (d *Domain) Copy(s State) State                   { return s }
func (d *Domain) Free(s State)                         {}
func (d *Domain) Validate(s State) error               { return nil }

// Step always observes 0 (the bandit gives no information beyond its
// reward) and terminates after exactly one action.
func (d *Domain) Step(r *rng.Source, s State, action int) (observation int, reward float64, terminal bool) {
	if action < 0 || action >= len(d.Payouts) {
		return 0, 0, true
	}
	return 0, d.Payouts[action], true
}

func (d *Domain) NumActions() int      { return len(d.Payouts) }
func (d *Domain) NumObservations() int { return 1 }
func (d *Domain) Discount() float64    { return 1.0 }

func (d *Domain) RewardRange() float64 {
	lo, hi := d.Payouts[0], d.Payouts[0]
	for _, p := range d.Payouts {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return hi - lo
}

func (d *Domain) GenerateLegal(s State, h *history.History) []int     { return nil }
func (d *Domain) GeneratePreferred(s State, h *history.History) []int { return nil }

// LocalMove is a no-op: there is no hidden state to perturb.
func (d *Domain) LocalMove(r *rng.Source, s State, h *history.History, lastObservation int) bool {
	return true
}

var _ simulator.Simulator[State] = (*Domain)(nil)

func (d *Domain) DescribeState(s State) string { return "bandit" }

func (d *Domain) DescribeAction(action int) string {
	return fmt.Sprintf("pull-arm-%d", action)
}

func (d *Domain) DescribeObservation(observation int) string {
	return "payout-observed"
}

var _ display.Describable[State] = (*Domain)(nil)
