package pomcp

import "github.com/mpetrov/pomcpGo/internal/simulator"

// pgsOf type-asserts sim against simulator.PGSSimulator[S], the optional
// capability interface for the Preferred Generator Search variant. Most
// simulators don't implement it; callers fall back to the plain
// legal/rollout behavior when ok is false.
func pgsOf[S any](sim simulator.Simulator[S]) (simulator.PGSSimulator[S], bool) {
	p, ok := any(sim).(simulator.PGSSimulator[S])
	return p, ok
}
