package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orviagent/orvi/pkg/types"
)

const (
	DefaultCooldown           = 2 * time.Second
	DefaultValidationCooldown = 5 * time.Second
	DefaultStabilization      = 2 * time.Second
)

// SequenceRunner retries a sequence's steps as a unit.
type SequenceRunner struct {
	Interpreter *StepInterpreter
	Poller      *ValidationPoller
	Driver      types.Driver

	// Cooldown separates attempts after a step or success-target failure,
	// ValidationCooldown after the validation poll budget ran out.
	Cooldown           time.Duration
	ValidationCooldown time.Duration
	// Stabilization is the pause between the last step and the first poll.
	Stabilization time.Duration
}

// Run executes seq (1-based index within the mission) until an attempt
// succeeds or max_attempts is exhausted.
func (sr *SequenceRunner) Run(ctx context.Context, index int, seq Sequence, logger Logger) types.SequenceResult {
	attempts := seq.Attempts()
	seqLogger := logger.With().Str("sequence", seq.Title).Logger()
	seqLogger.Info().Int("max_attempts", attempts).Msg("Starting sequence")

	result := types.SequenceResult{Title: seq.Title}
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		attemptLogger := seqLogger.With().Int("attempt", attempt).Logger()
		attemptLogger.Info().Msgf("Attempt %d/%d", attempt, attempts)

		err := sr.attempt(ctx, index, attempt, seq, attemptLogger)
		if err == nil {
			result.Success = true
			return result
		}
		lastErr = err

		if ctx.Err() != nil {
			attemptLogger.Error().Err(ctx.Err()).Msg("Sequence interrupted")
			break
		}

		if attempt < attempts {
			cooldown := sr.Cooldown
			if errors.Is(err, types.ErrValidationFailed) {
				cooldown = sr.ValidationCooldown
			}
			attemptLogger.Info().Dur("cooldown", cooldown).Msg("Retrying")
			if err := sleep(ctx, cooldown); err != nil {
				attemptLogger.Error().Err(err).Msg("Sequence interrupted")
				break
			}
		}
	}

	result.Err = fmt.Errorf("%w: %q failed after %d attempts: %w", types.ErrSequenceExhausted, seq.Title, result.Attempts, lastErr)
	seqLogger.Error().Err(lastErr).Msgf("Sequence failed after %d attempts", result.Attempts)
	return result
}

func (sr *SequenceRunner) attempt(ctx context.Context, index, attempt int, seq Sequence, logger Logger) error {
	key := types.ArtifactKey{Sequence: index, Attempt: attempt}

	for _, step := range seq.Steps {
		if err := sr.Interpreter.Execute(ctx, step, key, logger); err != nil {
			return err
		}
	}

	if v, ok := seq.ValidationStep(); ok && sr.Poller != nil {
		logger.Info().Dur("pause", sr.Stabilization).Msg("Waiting for page to stabilize")
		if err := sleep(ctx, sr.Stabilization); err != nil {
			return fmt.Errorf("stabilization pause interrupted: %w", err)
		}
		if err := sr.Poller.Poll(ctx, *v, key, logger); err != nil {
			logger.Warn().Err(err).Msg("Validation polling exhausted")
			return err
		}
	}

	if seq.SuccessTarget == "" {
		logger.Info().Msg("Sequence completed (no target defined)")
		return nil
	}

	timeout := seq.SuccessTargetTimeout.Std()
	logger.Info().Str("target", seq.SuccessTarget).Dur("timeout", timeout).Msg("Waiting for success target")
	if err := sr.Driver.WaitForVisible(ctx, seq.SuccessTarget, timeout); err != nil {
		logger.Warn().Str("target", seq.SuccessTarget).Msg("Success target not found")
		return fmt.Errorf("%w: %q: %w", types.ErrTargetNotFound, seq.SuccessTarget, err)
	}
	logger.Info().Str("target", seq.SuccessTarget).Msg("Success target found")
	return nil
}
