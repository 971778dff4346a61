package display

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDescribable struct{}

func (fakeDescribable) DescribeState(s int) string           { return "state" }
func (fakeDescribable) DescribeAction(action int) string     { return "action" }
func (fakeDescribable) DescribeObservation(o int) string     { return "observation" }

func TestAction_FallsBackToIntegerWithoutDescribable(t *testing.T) {
	require.Contains(t, Action[int](nil, 3), "3")
}

func TestAction_UsesDescribableWhenPresent(t *testing.T) {
	require.Contains(t, Action[int](fakeDescribable{}, 3), "action")
}

func TestReward_ColorsBySign(t *testing.T) {
	require.Contains(t, Reward(5), "5")
	require.Contains(t, Reward(-5), "5")
}

func TestStep_CombinesAllThreeFields(t *testing.T) {
	line := Step[int](fakeDescribable{}, 1, 2, 3.5)
	require.Contains(t, line, "action")
	require.Contains(t, line, "observation")
	require.Contains(t, line, "3.5")
}
