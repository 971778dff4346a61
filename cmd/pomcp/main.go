// Command pomcp runs a batch of POMCP planning episodes against one of
// the built-in domains and writes a CSV trace of every decision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/mpetrov/pomcpGo/domains/bandit"
	"github.com/mpetrov/pomcpGo/domains/rocksample"
	"github.com/mpetrov/pomcpGo/internal/experiment"
	"github.com/mpetrov/pomcpGo/internal/pomcp"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/ui/spinning"
)

// splitmixIncrement derives well-separated per-run seeds from a single
// base seed without any shared mutable state, so concurrent runs stay
// deterministic regardless of goroutine scheduling order.
const splitmixIncrement = 0x9E3779B97F4A7C15

func main() {
	klog.InitFlags(nil)

	// --problem dispatches to an unrecognized domain with exit code 2;
	// every other malformed-input path panics via exceptions.Panicf/must
	// and is caught here as exit code 1.
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("%v", r)
			os.Exit(1)
		}
	}()

	problem := flag.String("problem", "bandit", "domain to plan in: bandit or rocksample")
	size := flag.Int("size", 5, "domain size parameter (rocksample corridor length)")
	number := flag.Int("number", 1, "domain count parameter (rocksample rock count, bandit arm count)")
	runs := flag.Int("runs", 10, "number of independent episodes to run")
	simulationsLog2 := flag.Int("simulations", 10, "simulations per decision, as log2(n)")
	minDoubles := flag.Int("mindoubles", -1, "lower bound (log2) of a simulation-budget sweep; defaults to --simulations, i.e. no sweep")
	maxDoubles := flag.Int("maxdoubles", -1, "upper bound (log2) of a simulation-budget sweep; defaults to --simulations, i.e. no sweep")
	timeout := flag.Duration("timeout", 0, "wall-clock budget for the whole run; no new decision starts once it expires (0 = unbounded)")
	outputFile := flag.String("outputfile", "", "CSV output path (default: stdout)")
	useTransforms := flag.Bool("usetransforms", true, "enable particle invigoration via local_move")
	useRAVE := flag.Bool("userave", false, "enable RAVE/AMAF statistics during back-up")
	usePGS := flag.Bool("usepgs", false, "enable Preferred Generator Search rollout/legal shaping")
	reuseTree := flag.Bool("reusetree", true, "reuse the matching subtree across Update calls")
	workers := flag.Int("workers", 0, "max concurrent episode runs (0 = unbounded)")
	watch := flag.Bool("watch", false, "play one episode live with a spinner and per-step trace, instead of a batch run")
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	if err := flag.CommandLine.Parse(os.Args[1:]); err == flag.ErrHelp {
		return
	} else if err != nil {
		exceptions.Panicf("malformed flags: %v", err)
	}

	if *runs <= 0 || *simulationsLog2 < 0 || *size <= 0 || *number <= 0 {
		exceptions.Panicf("invalid flag values: runs=%d simulations=%d size=%d number=%d", *runs, *simulationsLog2, *size, *number)
	}
	if *minDoubles < 0 {
		*minDoubles = *simulationsLog2
	}
	if *maxDoubles < 0 {
		*maxDoubles = *simulationsLog2
	}
	if *minDoubles > *maxDoubles {
		exceptions.Panicf("invalid sweep range: mindoubles=%d maxdoubles=%d", *minDoubles, *maxDoubles)
	}
	budgets := make([]int, 0, *maxDoubles-*minDoubles+1)
	for d := *minDoubles; d <= *maxDoubles; d++ {
		budgets = append(budgets, 1<<uint(d))
	}

	baseSeed := must.M1(resolveSeed())
	seedFor := func(run int) uint64 { return baseSeed + uint64(run)*splitmixIncrement }

	plannerCfg := pomcp.DefaultConfig()
	plannerCfg.UseTransforms = *useTransforms
	plannerCfg.UseRAVE = *useRAVE
	plannerCfg.UsePGS = *usePGS
	plannerCfg.ReuseTree = *reuseTree

	expCfg := experiment.Config{Runs: *runs, Workers: *workers}

	out := os.Stdout
	if *outputFile != "" {
		f := must.M1(os.Create(*outputFile))
		defer f.Close()
		out = f
	}

	ctx, cancel := spinning.WithBudget(context.Background(), *timeout)
	defer cancel()
	spinning.SafeInterrupt(cancel, 5*time.Second)

	if *watch {
		plannerCfg.NumSimulations = budgets[0]
	}

	var results []experiment.BudgetSummary
	switch *problem {
	case "bandit":
		d := must.M1(bandit.New(fmt.Sprintf("arms=%d", *number)))
		if *watch {
			must.M(runWatch[bandit.State](ctx, d, plannerCfg, seedFor(0), out))
			return
		}
		results = must.M1(experiment.RunSweep[bandit.State](ctx, d, plannerCfg, budgets, expCfg, seedFor, out))

	case "rocksample":
		d := must.M1(rocksample.New(fmt.Sprintf("size=%d,rocks=%d", *size, *number)))
		if *watch {
			must.M(runWatch[*rocksample.State](ctx, d, plannerCfg, seedFor(0), out))
			return
		}
		results = must.M1(experiment.RunSweep[*rocksample.State](ctx, d, plannerCfg, budgets, expCfg, seedFor, out))

	default:
		klog.Errorf("unrecognized --problem %q (want bandit or rocksample)", *problem)
		os.Exit(2)
		return
	}

	for _, r := range results {
		klog.Infof("completed %d runs at simulations=%d, mean discounted return %.4f", r.Runs, r.NumSimulations, r.MeanDiscountedReturn)
	}
}

// resolveSeed reads RNG_SEED, if set; otherwise derives a base seed from
// system entropy.
func resolveSeed() (uint64, error) {
	v, ok := os.LookupEnv("RNG_SEED")
	if !ok {
		return rng.NewFromEntropy().Uint64(), nil
	}
	return strconv.ParseUint(v, 10, 64)
}
