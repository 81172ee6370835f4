package runners

import (
	"context"
	"fmt"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

type InputRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindInput, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &InputRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (ir *InputRunner) Validate() error {
	if ir.StepCtx.Step.Target == "" {
		return fmt.Errorf("input step must define 'target'")
	}
	return nil
}

func (ir *InputRunner) Run(ctx context.Context) error {
	if err := ir.Validate(); err != nil {
		return err
	}

	step := ir.StepCtx.Step
	driver := ir.StepCtx.Driver
	timing := ir.StepCtx.Timing

	if err := driver.WaitForVisible(ctx, step.Target, timing.InputTimeout); err != nil {
		return fmt.Errorf("waiting for input %q: %w", step.Target, err)
	}
	if err := driver.Clear(ctx, step.Target); err != nil {
		return fmt.Errorf("clearing input %q: %w", step.Target, err)
	}
	if err := driver.Type(ctx, step.Target, step.Value, timing.KeystrokeDelay); err != nil {
		return fmt.Errorf("typing into %q: %w", step.Target, err)
	}

	ir.StepCtx.Logger.Debug().Str("target", step.Target).Int("chars", len([]rune(step.Value))).Msg("Typed value")
	return nil
}
