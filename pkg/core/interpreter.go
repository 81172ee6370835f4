package core

import (
	"context"
	"fmt"
	"time"

	"github.com/orviagent/orvi/pkg/security"
	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

// StepInterpreter executes one step against a live driver.
type StepInterpreter struct {
	Driver         types.Driver
	Oracle         types.Oracle
	Captcha        types.CaptchaResolver
	Coordinates    CoordinateTable
	Artifacts      types.Artifacts
	Timing         types.Timing
	OracleFallback bool
	// Redactor receives every value resolved from the environment.
	Redactor *security.Redactor
}

// Execute runs step and its post delay. Optional steps absorb their failures
// unless the failure can never be optional; everything else is returned.
func (si *StepInterpreter) Execute(ctx context.Context, step Step, key types.ArtifactKey, logger Logger) error {
	resolved := step
	value, fromEnv := ResolveValue(step.Value)
	resolved.Value = value
	if fromEnv && value != "" && si.Redactor != nil {
		si.Redactor.Add(value)
	}

	scoped := logger.With().Str("kind", string(step.Kind)).Logger()
	target := step.Target
	if target == "" {
		target = "N/A"
	}
	scoped.Info().Str("target", target).Bool("optional", step.Optional).Msg("Executing step")

	if !step.Kind.Known() {
		scoped.Warn().Msg("Unknown step kind, skipping")
		return si.postDelay(ctx, step, scoped)
	}

	runner, err := steprunner.GetRunner(types.ExecutionContext{
		Step:           resolved,
		Logger:         scoped,
		Driver:         si.Driver,
		Oracle:         si.Oracle,
		Captcha:        si.Captcha,
		Coordinates:    si.Coordinates,
		Artifacts:      si.Artifacts,
		Key:            key,
		Timing:         si.Timing,
		OracleFallback: si.OracleFallback,
	})
	if err != nil {
		return fmt.Errorf("getting runner for %s step: %w", step.Kind, err)
	}

	if err := runner.Run(ctx); err != nil {
		if step.Optional && !types.IsNeverOptional(err) {
			scoped.Warn().Err(err).Msg("Optional step failed, continuing")
			return nil
		}
		scoped.Error().Err(err).Msg("Step failed")
		return fmt.Errorf("%s step: %w", step.Kind, err)
	}

	return si.postDelay(ctx, step, scoped)
}

func (si *StepInterpreter) postDelay(ctx context.Context, step Step, logger Logger) error {
	delay := step.Delay()
	if delay <= 0 {
		return nil
	}
	logger.Debug().Dur("delay", delay).Msg("Post-step delay")
	if err := sleep(ctx, delay); err != nil {
		return fmt.Errorf("post-step delay interrupted: %w", err)
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
