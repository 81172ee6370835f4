package core

import (
	"context"
	"fmt"

	"github.com/orviagent/orvi/pkg/types"
)

// ValidationPoller asks the oracle to confirm a condition on fresh screenshots
// until it passes or the poll budget runs out.
type ValidationPoller struct {
	Driver    types.Driver
	Oracle    types.Oracle
	Artifacts types.Artifacts
}

// Poll returns nil on the first passing verdict. Oracle errors count as a
// failed poll. Exhausting the budget returns ErrValidationFailed.
func (vp *ValidationPoller) Poll(ctx context.Context, v Validation, key types.ArtifactKey, logger Logger) error {
	if v.Condition == "" {
		logger.Info().Msg("No validation condition, assuming success")
		return nil
	}
	if vp.Oracle == nil {
		return fmt.Errorf("%w: no oracle configured for %q", types.ErrValidationFailed, v.Condition)
	}

	polls := v.Polls()
	delay := v.Delay()
	reason := "no verdict"

	for poll := 1; poll <= polls; poll++ {
		if poll > 1 {
			logger.Info().Int("poll", poll).Int("of", polls).Dur("delay", delay).Msg("Polling validation")
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("validation polling interrupted: %w", err)
			}
		}

		k := key
		k.Poll = poll
		k.Kind = types.ArtifactValidation
		path := vp.Artifacts.Path(k)

		if err := vp.Driver.Screenshot(ctx, path); err != nil {
			reason = err.Error()
			logger.Warn().Err(err).Int("poll", poll).Msg("Validation screenshot failed")
			continue
		}
		vp.Artifacts.Record(path)

		verdict, err := vp.Oracle.Validate(ctx, path, v.Condition)
		if err != nil {
			reason = err.Error()
			logger.Warn().Err(err).Int("poll", poll).Msg("Oracle call failed, counting as a failed verdict")
			continue
		}
		if verdict.Passed {
			logger.Info().Str("reason", verdict.Reason).Int("poll", poll).Msg("Validation passed")
			return nil
		}
		reason = verdict.Reason
		logger.Info().Str("reason", verdict.Reason).Int("poll", poll).Msg("Validation not yet satisfied")
	}

	return fmt.Errorf("%w: %q not confirmed after %d polls: %s", types.ErrValidationFailed, v.Condition, polls, reason)
}
