// Package experiment implements the batch evaluation driver: it runs
// many independent episodes of a Simulator against the POMCP engine and
// persists one row per decision. RunSweep repeats a batch once per
// simulation budget in a caller-supplied range, for comparing planner
// quality across budgets.
//
// Each run owns its own Engine and its own "true" environment state, so
// running runs concurrently via golang.org/x/sync/errgroup never shares
// mutable state across goroutines, which does not violate the engine's
// single-threaded invariant, it just runs many disjoint
// single-threaded engines side by side.
package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/mpetrov/pomcpGo/internal/display"
	"github.com/mpetrov/pomcpGo/internal/pomcp"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
)

// Record is one persisted decision:
// (run_id, decision_index, action, observation, reward, discounted_return).
type Record struct {
	RunID            string
	DecisionIndex    int
	Action           int
	Observation      int
	Reward           float64
	DiscountedReturn float64
}

// Config controls a batch of independent episodes.
type Config struct {
	// Runs is the number of independent episodes to execute.
	Runs int
	// MaxSteps bounds any single episode's length, defensively, in case
	// a Simulator never reports terminal=true. <=0 defaults to 1000.
	MaxSteps int
	// Workers bounds the number of runs executing concurrently. <=0
	// means unbounded (all Runs start immediately).
	Workers int
}

// Summary is the closing line emitted after every run completes.
type Summary struct {
	Runs                 int
	TotalReward          float64
	MeanDiscountedReturn float64
}

// BudgetSummary is one sweep level's Summary, tagged with the
// simulation budget (plain count, not log2) that produced it.
type BudgetSummary struct {
	NumSimulations int
	Summary
}

var recordHeader = []string{"run_id", "decision_index", "action", "observation", "reward", "discounted_return"}

// Run executes cfg.Runs independent episodes of sim, one Engine per run
// seeded from seedFor(run), writing every Record as a CSV row to out.
// Runs execute concurrently, bounded by cfg.Workers. A cancelled ctx
// stops starting new decisions but lets in-flight rows flush.
func Run[S any](ctx context.Context, sim simulator.Simulator[S], plannerCfg pomcp.Config, cfg Config, seedFor func(run int) uint64, out io.Writer) (Summary, error) {
	if cfg.Runs <= 0 {
		return Summary{}, errors.New("experiment: Runs must be positive")
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(recordHeader); err != nil {
		return Summary{}, errors.Wrap(err, "experiment: failed to write CSV header")
	}

	var mu sync.Mutex
	bar := progressbar.Default(int64(cfg.Runs), "running episodes")
	summary, err := runBatch(ctx, sim, plannerCfg, cfg, "", seedFor, bar, &mu, writer)
	if err != nil {
		return Summary{}, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return Summary{}, errors.Wrap(err, "experiment: failed to flush CSV output")
	}
	klog.V(1).Infof("experiment: %d runs, mean discounted return %.4f", summary.Runs, summary.MeanDiscountedReturn)
	return summary, nil
}

// RunSweep runs cfg.Runs episodes at each simulation budget in budgets
// (plain counts, not log2), sharing one CSV stream across every level.
// Each level's run_id is prefixed with its budget so rows from
// different sweep levels stay attributable despite sharing one stream.
// Returns one BudgetSummary per entry of budgets, in budgets order.
func RunSweep[S any](ctx context.Context, sim simulator.Simulator[S], plannerCfg pomcp.Config, budgets []int, cfg Config, seedFor func(run int) uint64, out io.Writer) ([]BudgetSummary, error) {
	if cfg.Runs <= 0 {
		return nil, errors.New("experiment: Runs must be positive")
	}
	if len(budgets) == 0 {
		return nil, errors.New("experiment: RunSweep requires at least one budget")
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(recordHeader); err != nil {
		return nil, errors.Wrap(err, "experiment: failed to write CSV header")
	}
	var mu sync.Mutex

	results := make([]BudgetSummary, 0, len(budgets))
	for level, budget := range budgets {
		levelCfg := plannerCfg
		levelCfg.NumSimulations = budget
		// Offsetting the run index by level*cfg.Runs keeps every
		// (level, run) pair's seed distinct without changing seedFor's
		// signature.
		level := level
		levelSeedFor := func(run int) uint64 { return seedFor(level*cfg.Runs + run) }

		bar := progressbar.Default(int64(cfg.Runs), fmt.Sprintf("simulations=%d", budget))
		summary, err := runBatch(ctx, sim, levelCfg, cfg, fmt.Sprintf("sim%d-", budget), levelSeedFor, bar, &mu, writer)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("experiment: simulations=%d, %d runs, mean discounted return %.4f", budget, summary.Runs, summary.MeanDiscountedReturn)
		results = append(results, BudgetSummary{NumSimulations: budget, Summary: summary})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Wrap(err, "experiment: failed to flush CSV output")
	}
	return results, nil
}

// runBatch runs cfg.Runs episodes of sim under plannerCfg, one Engine
// per run seeded from seedFor(run), bounded by cfg.Workers, writing
// every decision through writer (guarded by mu) with its run_id
// prefixed by runIDPrefix.
func runBatch[S any](ctx context.Context, sim simulator.Simulator[S], plannerCfg pomcp.Config, cfg Config, runIDPrefix string, seedFor func(run int) uint64, bar *progressbar.ProgressBar, mu *sync.Mutex, writer *csv.Writer) (Summary, error) {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 1000
	}

	var totalReward, totalDiscounted float64
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for run := 0; run < cfg.Runs; run++ {
		run := run
		g.Go(func() error {
			reward, discounted, err := runOne(gctx, sim, plannerCfg, runIDPrefix, run, maxSteps, seedFor, mu, writer)
			if err != nil {
				return err
			}
			mu.Lock()
			totalReward += reward
			totalDiscounted += discounted
			mu.Unlock()
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Runs:                 cfg.Runs,
		TotalReward:          totalReward,
		MeanDiscountedReturn: totalDiscounted / float64(cfg.Runs),
	}, nil
}

func runOne[S any](ctx context.Context, sim simulator.Simulator[S], plannerCfg pomcp.Config, runIDPrefix string, run, maxSteps int, seedFor func(run int) uint64, mu *sync.Mutex, writer *csv.Writer) (reward, discountedReturn float64, err error) {
	runID := runIDPrefix + uuid.NewString()
	plannerRNG := rng.New(seedFor(run))
	envRNG := plannerRNG.Child()

	engine := pomcp.NewEngine[S](sim, plannerCfg, plannerRNG)
	trueState := sim.CreateStartState(envRNG)
	defer sim.Free(trueState)

	describable, _ := any(sim).(display.Describable[S])

	discount := 1.0
	cumulative := 0.0
	total := 0.0
	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return total, cumulative, nil
		default:
		}

		action := engine.SelectAction()
		if klog.V(2).Enabled() {
			klog.V(2).Infof("run %s step %d: %s", runID, step, display.RankedActions(describable, engine.RootActionMeans()))
		}
		obs, r, terminal := sim.Step(envRNG, trueState, action)
		cumulative += discount * r
		discount *= sim.Discount()
		total += r

		mu.Lock()
		writeErr := writer.Write([]string{
			runID,
			fmt.Sprintf("%d", step),
			fmt.Sprintf("%d", action),
			fmt.Sprintf("%d", obs),
			fmt.Sprintf("%g", r),
			fmt.Sprintf("%g", cumulative),
		})
		mu.Unlock()
		if writeErr != nil {
			return total, cumulative, errors.Wrapf(writeErr, "experiment: failed to write record for run %s", runID)
		}

		engine.Update(action, obs, r)
		if terminal {
			break
		}
	}
	return total, cumulative, nil
}
