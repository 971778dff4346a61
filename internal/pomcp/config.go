package pomcp

// Config is the planner's configuration record: every field is a
// concrete, typed struct member with a documented default, not a
// dynamic attribute map.
type Config struct {
	// NumSimulations is the number of simulations run per SelectAction call.
	NumSimulations int

	// MaxDepth is the maximum rollout/search depth.
	MaxDepth int

	// ExplorationConstant is the UCB1 "c". By convention it is set
	// proportional to the simulator's RewardRange.
	ExplorationConstant float64

	// UseRAVE enables the all-moves-as-first update during back-up.
	UseRAVE bool
	// RAVEConstant mixes the RAVE/AMAF estimate into action selection.
	// Reserved for callers that want a blended Q+RAVE score on top of
	// plain UCB; the engine's own SelectUCB uses Value only, with AMAF
	// tracked alongside for callers/tests that want to inspect it.
	RAVEConstant float64
	// RAVEDiscount is the per-step decay applied to the backed-up return
	// as it credits actions further back along the simulated trajectory.
	RAVEDiscount float64

	// UseTransforms enables particle invigoration via Simulator.LocalMove.
	UseTransforms bool
	// NumTransforms bounds invigoration attempts per Update call.
	NumTransforms int
	// MaxAttempts is a hard ceiling on invigoration accept/reject tries,
	// independent of NumTransforms, so a misconfigured NumTransforms
	// can never cause an unbounded loop.
	MaxAttempts int

	// ExpandCount is the minimum visit count before a leaf is expanded
	// (rather than rolled out). The default of 1 reproduces classical
	// POMCP: the very first visit to a leaf is always a rollout.
	ExpandCount int

	// ReuseTree keeps the matching subtree on Update instead of
	// rebuilding the root from scratch.
	ReuseTree bool

	// SmartTreeCount/SmartTreeValue seed every freshly created QNode's
	// Value statistic with a pseudo-sample.
	SmartTreeCount int
	SmartTreeValue float64

	// UsePGS swaps the rollout/legal generators for the PGS variant
	// when the Simulator also implements PGSSimulator.
	UsePGS bool

	// NumParticles is the belief's target particle count, used for
	// initial population and invigoration; see DESIGN.md for why this
	// field exists alongside NumTransforms/MaxAttempts.
	NumParticles int

	// Debug gates Simulator.Validate calls: fatal when true, silently
	// skipped when false.
	Debug bool
}

// DefaultConfig returns a Config with reasonable defaults for every
// field: a fully-populated struct literal a caller can then override
// selectively.
func DefaultConfig() Config {
	return Config{
		NumSimulations:      1000,
		MaxDepth:            100,
		ExplorationConstant: 1.0,
		UseRAVE:             false,
		RAVEConstant:        1.0,
		RAVEDiscount:        0.95,
		UseTransforms:       true,
		NumTransforms:       100,
		MaxAttempts:         1000,
		ExpandCount:         1,
		ReuseTree:           true,
		SmartTreeCount:      0,
		SmartTreeValue:      0,
		UsePGS:              false,
		NumParticles:        1000,
		Debug:               false,
	}
}
