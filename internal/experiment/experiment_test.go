package experiment

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mpetrov/pomcpGo/domains/bandit"
	"github.com/mpetrov/pomcpGo/internal/pomcp"
)

func testPlannerConfig() pomcp.Config {
	cfg := pomcp.DefaultConfig()
	cfg.NumSimulations = 50
	cfg.NumParticles = 20
	cfg.MaxDepth = 3
	return cfg
}

func TestRun_WritesOneRowPerDecisionAndASummary(t *testing.T) {
	d, err := bandit.New("")
	require.NoError(t, err)

	var buf bytes.Buffer
	seedFor := func(run int) uint64 { return uint64(run + 1) }
	summary, err := Run[bandit.State](context.Background(), d, testPlannerConfig(), Config{Runs: 3, MaxSteps: 10}, seedFor, &buf)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Runs)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"run_id", "decision_index", "action", "observation", "reward", "discounted_return"}, records[0])
	// the bandit terminates after exactly one decision per run.
	require.Len(t, records, 1+3)
}

func TestRun_RejectsNonPositiveRunCount(t *testing.T) {
	d, err := bandit.New("")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = Run[bandit.State](context.Background(), d, testPlannerConfig(), Config{Runs: 0}, func(int) uint64 { return 1 }, &buf)
	require.Error(t, err)
}

func TestRun_StopsCleanlyOnContextCancellation(t *testing.T) {
	d, err := bandit.New("")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	var buf bytes.Buffer
	summary, err := Run[bandit.State](ctx, d, testPlannerConfig(), Config{Runs: 5, MaxSteps: 10}, func(int) uint64 { return 1 }, &buf)
	require.NoError(t, err)
	require.Equal(t, 5, summary.Runs)
}

func TestRunSweep_RunsOneBatchPerBudgetAndTagsRunIDs(t *testing.T) {
	d, err := bandit.New("")
	require.NoError(t, err)

	var buf bytes.Buffer
	seedFor := func(run int) uint64 { return uint64(run + 1) }
	results, err := RunSweep[bandit.State](context.Background(), d, testPlannerConfig(), []int{10, 20}, Config{Runs: 3, MaxSteps: 10}, seedFor, &buf)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 10, results[0].NumSimulations)
	require.Equal(t, 20, results[1].NumSimulations)
	require.Equal(t, 3, results[0].Runs)
	require.Equal(t, 3, results[1].Runs)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// one header row plus 3 rows per budget level, bandit terminates in one decision.
	require.Len(t, records, 1+3+3)
	require.True(t, strings.HasPrefix(records[1][0], "sim10-"))
	require.True(t, strings.HasPrefix(records[len(records)-1][0], "sim20-"))
}

func TestRunSweep_RejectsEmptyBudgetList(t *testing.T) {
	d, err := bandit.New("")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = RunSweep[bandit.State](context.Background(), d, testPlannerConfig(), nil, Config{Runs: 3}, func(int) uint64 { return 1 }, &buf)
	require.Error(t, err)
}
