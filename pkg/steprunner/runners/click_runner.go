package runners

import (
	"context"
	"fmt"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

type ClickRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindClick, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &ClickRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (cr *ClickRunner) Validate() error {
	if cr.StepCtx.Step.Target == "" {
		return fmt.Errorf("click step must define 'target'")
	}
	return nil
}

func (cr *ClickRunner) Run(ctx context.Context) error {
	if err := cr.Validate(); err != nil {
		return err
	}

	step := cr.StepCtx.Step
	driver := cr.StepCtx.Driver

	// Optional UI such as dismissible banners must not stall the mission.
	timeout := cr.StepCtx.Timing.ClickTimeout
	if step.Optional {
		timeout = cr.StepCtx.Timing.OptionalClickTimeout
	}

	if err := driver.WaitForVisible(ctx, step.Target, timeout); err != nil {
		return fmt.Errorf("waiting for %q: %w", step.Target, err)
	}
	if err := driver.Click(ctx, step.Target); err != nil {
		return fmt.Errorf("clicking %q: %w", step.Target, err)
	}
	return nil
}
