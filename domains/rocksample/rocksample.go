// Package rocksample implements a one-dimensional "rock on a line"
// corridor, a minimal instance of the classic RockSample POMDP: an
// agent moves along a corridor of cells, some of which hide a rock that
// is either good or bad, and must Sample good rocks and avoid bad ones
// before exiting east. It is small enough to reason about by hand while
// still exercising belief tracking, particle invigoration, and PGS
// shaping.
package rocksample

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/mpetrov/pomcpGo/internal/display"
	"github.com/mpetrov/pomcpGo/internal/domainparams"
	"github.com/mpetrov/pomcpGo/internal/history"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
)

// Action indices. Check actions for rock i are CheckBase+i.
const (
	ActionNorth = iota
	ActionSouth
	ActionWest
	ActionEast
	ActionSample
	CheckBase
)

// Observation values.
const (
	ObservationBad  = 0
	ObservationGood = 1
	ObservationNone = 2
)

const rewardGoodSample = 10.0
const rewardBadSample = -10.0
const rewardExit = 10.0

// State is the hidden state: the agent's position and, per rock, its
// true quality, whether it has been sampled away, and whether its
// quality has become certain to the agent (it was sampled, or a perfect
// Check was run on it). State is used as a pointer type so Simulator.Step and LocalMove
// can mutate it in place, per the engine's ownership contract.
type State struct {
	AgentPos int
	Good     []bool
	Sampled  []bool
	Known    []bool
}

// Domain is the rocksample Simulator.
type Domain struct {
	Size     int
	StartPos int
	RockPos  []int
	Prior    []float64 // P(rock i is good) under the prior belief
	Perfect  bool       // true: Check is noiseless
	HalfEff  float64    // half-efficiency distance when !Perfect
	discount float64
}

// New builds a Domain from a domain parameter string. Recognized keys:
//
//	size    corridor length (default 5)
//	rocks   number of rocks, evenly spaced (default 1)
//	start   agent start cell (default size/2)
//	prior   P(good) shared by every rock (default 0.5)
//	perfect whether Check is noiseless (default true)
//	halfeff half-efficiency distance when perfect=false (default 2)
//	discount per-step discount factor (default 0.95)
func New(config string) (*Domain, error) {
	params := domainparams.NewFromConfigString(config)
	size, err := domainparams.PopParamOr(params, "size", 5)
	if err != nil {
		return nil, err
	}
	numRocks, err := domainparams.PopParamOr(params, "rocks", 1)
	if err != nil {
		return nil, err
	}
	start, err := domainparams.PopParamOr(params, "start", size/2)
	if err != nil {
		return nil, err
	}
	prior, err := domainparams.PopParamOr(params, "prior", 0.5)
	if err != nil {
		return nil, err
	}
	perfect, err := domainparams.PopParamOr(params, "perfect", true)
	if err != nil {
		return nil, err
	}
	halfEff, err := domainparams.PopParamOr(params, "halfeff", 2.0)
	if err != nil {
		return nil, err
	}
	discount, err := domainparams.PopParamOr(params, "discount", 0.95)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		return nil, errors.Errorf("rocksample: unrecognized parameters: %v", params)
	}
	if size < 2 {
		return nil, errors.Errorf("rocksample: size must be >= 2, got %d", size)
	}
	if numRocks < 1 || numRocks > size {
		return nil, errors.Errorf("rocksample: rocks must be in [1, size], got %d", numRocks)
	}
	if start < 0 || start >= size {
		return nil, errors.Errorf("rocksample: start must be in [0, size), got %d", start)
	}

	rockPos := make([]int, numRocks)
	priors := make([]float64, numRocks)
	for i := range rockPos {
		rockPos[i] = (i + 1) * size / (numRocks + 1)
		priors[i] = prior
	}
	return &Domain{
		Size:     size,
		StartPos: start,
		RockPos:  rockPos,
		Prior:    priors,
		Perfect:  perfect,
		HalfEff:  halfEff,
		discount: discount,
	}, nil
}

func (d *Domain) rockAt(pos int) (int, bool) {
	for i, p := range d.RockPos {
		if p == pos {
			return i, true
		}
	}
	return 0, false
}

func (d *Domain) CreateStartState(r *rng.Source) *State {
	s := &State{
		AgentPos: d.StartPos,
		Good:     make([]bool, len(d.RockPos)),
		Sampled:  make([]bool, len(d.RockPos)),
		Known:    make([]bool, len(d.RockPos)),
	}
	for i := range s.Good {
		s.Good[i] = r.Float64() < d.Prior[i]
	}
	return s
}

func (d *Domain) Copy(s *State) *State {
	clone := &State{
		AgentPos: s.AgentPos,
		Good:     append([]bool(nil), s.Good...),
		Sampled:  append([]bool(nil), s.Sampled...),
		Known:    append([]bool(nil), s.Known...),
	}
	return clone
}

func (d *Domain) Free(s *State) {}

func (d *Domain) Validate(s *State) error {
	n := len(d.RockPos)
	if len(s.Good) != n || len(s.Sampled) != n || len(s.Known) != n {
		return errors.Errorf("rocksample: state rock arrays have wrong length (want %d)", n)
	}
	if s.AgentPos < 0 || s.AgentPos >= d.Size {
		return errors.Errorf("rocksample: agent position %d out of bounds [0,%d)", s.AgentPos, d.Size)
	}
	return nil
}

func (d *Domain) Step(r *rng.Source, s *State, action int) (observation int, reward float64, terminal bool) {
	switch {
	case action == ActionNorth || action == ActionSouth:
		return ObservationNone, 0, false

	case action == ActionWest:
		if s.AgentPos > 0 {
			s.AgentPos--
		}
		return ObservationNone, 0, false

	case action == ActionEast:
		if s.AgentPos == d.Size-1 {
			return ObservationNone, rewardExit, true
		}
		s.AgentPos++
		return ObservationNone, 0, false

	case action == ActionSample:
		i, ok := d.rockAt(s.AgentPos)
		if !ok || s.Sampled[i] {
			return ObservationNone, rewardBadSample, false
		}
		s.Sampled[i] = true
		s.Known[i] = true
		if s.Good[i] {
			s.Good[i] = false // consumed: sampling a good rock uses it up
			return ObservationNone, rewardGoodSample, false
		}
		return ObservationNone, rewardBadSample, false

	case action >= CheckBase && action < CheckBase+len(d.RockPos):
		i := action - CheckBase
		correct := true
		if !d.Perfect {
			dist := math.Abs(float64(s.AgentPos - d.RockPos[i]))
			prob := (1 + math.Exp2(-dist/d.HalfEff)) / 2
			correct = r.Float64() < prob
		}
		truth := s.Good[i]
		observedGood := truth
		if !correct {
			observedGood = !truth
		}
		if d.Perfect {
			s.Known[i] = true
		}
		if observedGood {
			return ObservationGood, 0, false
		}
		return ObservationBad, 0, false

	default:
		return ObservationNone, 0, false
	}
}

func (d *Domain) NumActions() int      { return CheckBase + len(d.RockPos) }
func (d *Domain) NumObservations() int { return 3 }
func (d *Domain) Discount() float64    { return d.discount }
func (d *Domain) RewardRange() float64 { return 10.0 }

func (d *Domain) GenerateLegal(s *State, h *history.History) []int { return nil }

// GeneratePreferred shapes rollouts using the rollout state's ground
// truth (legitimate during simulation: the rollout is evaluating one
// sampled hidden state, not the agent's belief): sample a good rock
// underfoot, move off a bad one, otherwise Check the nearest rock that
// is neither sampled nor Known, and head east toward the exit once no
// such rock is left.
func (d *Domain) GeneratePreferred(s *State, h *history.History) []int {
	if i, ok := d.rockAt(s.AgentPos); ok && !s.Sampled[i] {
		if s.Good[i] {
			return []int{ActionSample}
		}
		return []int{ActionEast, ActionWest}
	}
	if idx, ok := d.nearestUnresolvedRock(s); ok {
		return []int{CheckBase + idx}
	}
	return []int{ActionEast}
}

func (d *Domain) nearestUnresolvedRock(s *State) (int, bool) {
	best, bestDist := -1, math.MaxInt
	for i := range d.RockPos {
		if s.Sampled[i] || s.Known[i] {
			continue
		}
		dist := int(math.Abs(float64(s.AgentPos - d.RockPos[i])))
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, best >= 0
}

// LocalMove perturbs one rock's hidden quality, for particle
// invigoration. Rocks already sampled or perfectly Known are left
// alone, since flipping them would make the particle inconsistent with
// the agent's own observed history.
func (d *Domain) LocalMove(r *rng.Source, s *State, h *history.History, lastObservation int) bool {
	candidates := make([]int, 0, len(d.RockPos))
	for i := range d.RockPos {
		if !s.Sampled[i] && !s.Known[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	i := candidates[r.Intn(len(candidates))]
	s.Good[i] = !s.Good[i]
	return true
}

var _ simulator.Simulator[*State] = (*Domain)(nil)

// Potential implements simulator.PGSSimulator: remaining good-rock value
// minus distance to the nearest one, or, once nothing is left to
// collect, minus the remaining distance to the exit (so it rises as the
// agent progresses east).
func (d *Domain) Potential(s *State) float64 {
	remaining := 0
	bestDist := math.MaxInt
	for i := range d.RockPos {
		if s.Good[i] && !s.Sampled[i] {
			remaining++
			dist := int(math.Abs(float64(s.AgentPos - d.RockPos[i])))
			if dist < bestDist {
				bestDist = dist
			}
		}
	}
	if remaining > 0 {
		return float64(remaining)*10 - float64(bestDist)
	}
	return -float64(d.Size - 1 - s.AgentPos)
}

// PGSLegal prunes certainly-harmful actions for s when the agent stands
// on an unsampled rock: force Sample if the rock is good, or remove
// Sample if it is bad. Anywhere else, including on an already-sampled
// rock, it returns nil (no pruning).
func (d *Domain) PGSLegal(s *State, h *history.History) []int {
	if i, ok := d.rockAt(s.AgentPos); ok && !s.Sampled[i] {
		if s.Good[i] {
			return []int{ActionSample}
		}
		legal := make([]int, 0, d.NumActions()-1)
		for a := 0; a < d.NumActions(); a++ {
			if a != ActionSample {
				legal = append(legal, a)
			}
		}
		return legal
	}
	return nil
}

var _ simulator.PGSSimulator[*State] = (*Domain)(nil)

var actionNames = []string{"north", "south", "west", "east", "sample"}

func (d *Domain) DescribeAction(action int) string {
	if action < len(actionNames) {
		return actionNames[action]
	}
	return fmt.Sprintf("check-rock-%d", action-CheckBase)
}

func (d *Domain) DescribeObservation(observation int) string {
	switch observation {
	case ObservationGood:
		return "good"
	case ObservationBad:
		return "bad"
	default:
		return "none"
	}
}

func (d *Domain) DescribeState(s *State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "agent@%d rocks=[", s.AgentPos)
	for i := range d.RockPos {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case s.Sampled[i]:
			fmt.Fprintf(&b, "%d:sampled", d.RockPos[i])
		case s.Good[i]:
			fmt.Fprintf(&b, "%d:good", d.RockPos[i])
		default:
			fmt.Fprintf(&b, "%d:bad", d.RockPos[i])
		}
	}
	b.WriteByte(']')
	return b.String()
}

var _ display.Describable[*State] = (*Domain)(nil)
