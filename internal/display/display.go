// Package display renders human-readable traces of a planning run. It
// never affects planning: everything here is read-only formatting,
// consumed by cmd/pomcp and internal/experiment for progress output.
//
// Styled with charmbracelet/lipgloss the same way a board/state dump
// would style cell or player state for the terminal.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mpetrov/pomcpGo/internal/generics"
)

// Describable is an optional capability a Simulator may implement to get
// friendlier trace output than bare integer encodings; callers look for
// it on the Simulator value. S must match the Simulator[S] being
// described.
type Describable[S any] interface {
	DescribeState(s S) string
	DescribeAction(action int) string
	DescribeObservation(observation int) string
}

var (
	actionStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	observationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	rewardStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	negativeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	stateStyle       = lipgloss.NewStyle().Faint(true)
)

// Action renders an action index, using d's description when available.
func Action[S any](d Describable[S], action int) string {
	if d == nil {
		return actionStyle.Render(strconv.Itoa(action))
	}
	return actionStyle.Render(d.DescribeAction(action))
}

// Observation renders an observation index, using d's description when available.
func Observation[S any](d Describable[S], observation int) string {
	if d == nil {
		return observationStyle.Render(strconv.Itoa(observation))
	}
	return observationStyle.Render(d.DescribeObservation(observation))
}

// State renders a state, using d's description when available.
func State[S any](d Describable[S], s S) string {
	if d == nil {
		return stateStyle.Render(fmt.Sprintf("%v", s))
	}
	return stateStyle.Render(d.DescribeState(s))
}

// Reward renders a reward value, colored by sign.
func Reward(reward float64) string {
	text := strconv.FormatFloat(reward, 'g', -1, 64)
	if reward < 0 {
		return negativeStyle.Render(text)
	}
	return rewardStyle.Render(text)
}

// Step renders one (action, observation, reward) transition line.
func Step[S any](d Describable[S], action, observation int, reward float64) string {
	return fmt.Sprintf("a=%s  o=%s  r=%s", Action(d, action), Observation(d, observation), Reward(reward))
}

// RankedActions renders the root's per-action mean values, highest
// first, for debug tracing of a decision. means is indexed by action,
// as returned by Engine.RootActionMeans.
func RankedActions[S any](d Describable[S], means []float64) string {
	order := generics.SliceOrdering(means, true)
	parts := make([]string, len(order))
	for rank, action := range order {
		parts[rank] = fmt.Sprintf("%s=%s", Action(d, action), Reward(means[action]))
	}
	return strings.Join(parts, "  ")
}
