package cli

import (
	"fmt"
	"os"

	"github.com/orviagent/orvi/pkg/core"
	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/schema"

	// Ensure all runner implementations are initialized
	_ "github.com/orviagent/orvi/pkg/steprunner/runners"
)

type LintCmd struct {
	Mission string `arg:"" help:"The mission file (YAML or JSON)." type:"existingfile"`
	Strict  bool   `help:"Treat steps without a runner as errors."`
}

func (l *LintCmd) Run() error {
	logRouter := log.NewRouter(sinks.NewConsoleSink())
	cmdLogger := log.NewLogger(logRouter)

	cmdLogger.Info().Msgf("Validating %s", l.Mission)

	data, err := os.ReadFile(l.Mission)
	if err != nil {
		return fmt.Errorf("reading mission file %q: %w", l.Mission, err)
	}
	violations, err := schema.ValidateDocument(data)
	if err != nil {
		cmdLogger.Error().Err(err).Msgf("Failed to parse mission file %s", l.Mission)
		return fmt.Errorf("parsing mission file %q: %w", l.Mission, err)
	}
	for _, v := range violations {
		cmdLogger.Error().Msgf("Schema violation at %s", v)
	}
	if len(violations) > 0 {
		return fmt.Errorf("mission file %q has %d schema violation(s)", l.Mission, len(violations))
	}
	cmdLogger.Info().Msg("Schema validation passed")

	m, err := core.LoadMissionFromFile(l.Mission)
	if err != nil {
		cmdLogger.Error().Err(err).Msgf("Failed to load mission file %s", l.Mission)
		return fmt.Errorf("loading mission file %q: %w", l.Mission, err)
	}
	cmdLogger.Info().Msgf("Successfully loaded mission: %s (%d sequences)", m.Name, len(m.Sequences))

	cmdLogger.Info().Msgf("Validating individual steps...")
	if err := core.ValidateMissionRunners(m); err != nil {
		cmdLogger.Error().Err(err).Msg("Step configuration validation failed")
		return fmt.Errorf("validating mission %q: %w", m.Name, err)
	}

	unknown := core.UnknownSteps(m)
	for _, step := range unknown {
		cmdLogger.Warn().Msgf("Step %s has no runner and will be skipped at run time", step)
	}
	if l.Strict && len(unknown) > 0 {
		return fmt.Errorf("mission %q has %d step(s) without a runner", m.Name, len(unknown))
	}

	cmdLogger.Info().Msg("Successfully validated mission configuration ✅")
	return nil
}
