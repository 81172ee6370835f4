package runners

import (
	"context"
	"fmt"
	"strings"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

// DynamicInputRunner reads a challenge key from the page, looks it up in the
// coordinate table and fills the answer into Target.
type DynamicInputRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindDynamicInput, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &DynamicInputRunner{
			StepCtx: ctx,
		}, nil
	})
}

// NormalizeChallengeKey trims the raw key and strips one leading zero from
// two-character keys ("01" becomes "1").
func NormalizeChallengeKey(raw string) string {
	key := strings.TrimSpace(raw)
	if len([]rune(key)) == 2 && strings.HasPrefix(key, "0") {
		return key[1:]
	}
	return key
}

// tableName labels the coordinate table in messages.
func (dr *DynamicInputRunner) tableName() string {
	if dr.StepCtx.Step.LookupKeySource != "" {
		return dr.StepCtx.Step.LookupKeySource
	}
	return "coordinates"
}

func (dr *DynamicInputRunner) Validate() error {
	if dr.StepCtx.Step.Value == "" {
		return fmt.Errorf("dynamic_input step must define 'value' (challenge key selector)")
	}
	if dr.StepCtx.Step.Target == "" {
		return fmt.Errorf("dynamic_input step must define 'target'")
	}
	return nil
}

func (dr *DynamicInputRunner) Run(ctx context.Context) error {
	if err := dr.Validate(); err != nil {
		return err
	}

	step := dr.StepCtx.Step
	driver := dr.StepCtx.Driver
	timing := dr.StepCtx.Timing
	selector := step.Value

	if err := driver.WaitForVisible(ctx, selector, timing.ChallengeTimeout); err != nil {
		return fmt.Errorf("waiting for challenge key %q: %w", selector, err)
	}
	raw, err := driver.ReadText(ctx, selector)
	if err != nil {
		return fmt.Errorf("reading challenge key %q: %w", selector, err)
	}

	key := NormalizeChallengeKey(raw)
	value, ok := dr.StepCtx.Coordinates[key]
	if !ok || value == "" {
		return fmt.Errorf("%w: key %q (raw %q) not in %s", types.ErrLookupKeyMissing, key, raw, dr.tableName())
	}
	dr.StepCtx.Logger.Info().Str("key", key).Msg("Challenge key resolved")

	if err := driver.WaitForVisible(ctx, step.Target, timing.InputTimeout); err != nil {
		return fmt.Errorf("waiting for %q: %w", step.Target, err)
	}
	if err := driver.Fill(ctx, step.Target, value); err != nil {
		return fmt.Errorf("filling %q: %w", step.Target, err)
	}
	return nil
}
