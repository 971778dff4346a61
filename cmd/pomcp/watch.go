package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/mpetrov/pomcpGo/internal/display"
	"github.com/mpetrov/pomcpGo/internal/pomcp"
	"github.com/mpetrov/pomcpGo/internal/rng"
	"github.com/mpetrov/pomcpGo/internal/simulator"
	"github.com/mpetrov/pomcpGo/internal/ui/spinning"
)

const watchMaxSteps = 1000

// runWatch plays a single episode live, printing every transition as
// it happens and running a terminal spinner while each SelectAction
// call is thinking, the way cmd/hive's --watch mode drives one AI move
// at a time. It still emits the same CSV rows a batch run would, to out.
func runWatch[S any](ctx context.Context, sim simulator.Simulator[S], plannerCfg pomcp.Config, seed uint64, out io.Writer) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"run_id", "decision_index", "action", "observation", "reward", "discounted_return"}); err != nil {
		return err
	}
	defer writer.Flush()

	runID := uuid.NewString()
	plannerRNG := rng.New(seed)
	envRNG := plannerRNG.Child()
	engine := pomcp.NewEngine[S](sim, plannerCfg, plannerRNG)
	trueState := sim.CreateStartState(envRNG)
	defer sim.Free(trueState)

	describable, _ := any(sim).(display.Describable[S])

	discount := 1.0
	cumulative := 0.0
	for step := 0; step < watchMaxSteps; step++ {
		select {
		case <-ctx.Done():
			klog.Infof("watch: episode finished, discounted return %.4f", cumulative)
			return nil
		default:
		}

		fmt.Printf("%d: %s  ", step, display.State(describable, trueState))
		s := spinning.New(ctx)
		action := engine.SelectAction()
		s.Done()

		obs, r, terminal := sim.Step(envRNG, trueState, action)
		cumulative += discount * r
		discount *= sim.Discount()
		fmt.Println(display.Step(describable, action, obs, r))

		if err := writer.Write([]string{
			runID,
			fmt.Sprintf("%d", step),
			fmt.Sprintf("%d", action),
			fmt.Sprintf("%d", obs),
			fmt.Sprintf("%g", r),
			fmt.Sprintf("%g", cumulative),
		}); err != nil {
			return err
		}

		engine.Update(action, obs, r)
		if terminal {
			break
		}
	}
	klog.Infof("watch: episode finished, discounted return %.4f", cumulative)
	return nil
}
