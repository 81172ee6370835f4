package core

import (
	"fmt"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

// ValidateMissionStructure checks sequence and step fields that do not depend
// on a particular runner.
func ValidateMissionStructure(m *Mission) error {
	if m == nil {
		return fmt.Errorf("mission is nil")
	}
	if len(m.Sequences) == 0 {
		return fmt.Errorf("mission defines no sequences")
	}

	for i, seq := range m.Sequences {
		label := seq.Title
		if label == "" {
			return fmt.Errorf("sequence %d is missing 'title'", i+1)
		}
		if seq.MaxAttempts < 0 {
			return fmt.Errorf("sequence %q: 'max_attempts' must not be negative", label)
		}
		if seq.SuccessTargetTimeout < 0 {
			return fmt.Errorf("sequence %q: 'success_target_timeout' must not be negative", label)
		}

		for j, step := range seq.Steps {
			if step.Kind == "" {
				return fmt.Errorf("sequence %q step %d is missing 'kind'", label, j+1)
			}
			if step.Validation != nil && step.Validation.PollAttempts < 0 {
				return fmt.Errorf("sequence %q step %d: 'validation.poll_attempts' must not be negative", label, j+1)
			}
		}
	}

	return nil
}

// ValidateMissionRunners asks every known step's runner to validate its step.
// Unknown kinds are left alone since they are skipped at run time.
func ValidateMissionRunners(m *Mission) error {
	for _, seq := range m.Sequences {
		for j, step := range seq.Steps {
			if !step.Kind.Known() {
				continue
			}

			ctx := types.ExecutionContext{Step: step}
			runner, err := steprunner.GetRunner(ctx)
			if err != nil {
				return fmt.Errorf("getting runner for sequence %q step %d: %w", seq.Title, j+1, err)
			}

			if err = runner.Validate(); err != nil {
				return fmt.Errorf("validating sequence %q step %d: %w", seq.Title, j+1, err)
			}
		}
	}

	return nil
}

// UnknownSteps lists "sequence/index: kind" for steps no runner handles.
func UnknownSteps(m *Mission) []string {
	var out []string
	for _, seq := range m.Sequences {
		for j, step := range seq.Steps {
			if !step.Kind.Known() {
				out = append(out, fmt.Sprintf("%s/%d: %s", seq.Title, j+1, step.Kind))
			}
		}
	}
	return out
}
