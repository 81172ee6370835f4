package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orviagent/orvi/pkg/config"
	"github.com/orviagent/orvi/pkg/core"
	"github.com/orviagent/orvi/pkg/types"

	// Ensure all runner implementations are initialized
	_ "github.com/orviagent/orvi/pkg/steprunner/runners"
)

type RunCmd struct {
	config.Config `embed:""`

	Mission     string `arg:"" help:"The mission file (YAML or JSON)." type:"existingfile"`
	Coordinates string `help:"YAML or JSON file mapping challenge keys to values; values may be env:NAME." type:"existingfile"`
	JSON        bool   `help:"Print the execution result as JSON on stdout."`
}

func (r *RunCmd) Run() error {
	logs, err := newLogging(r.Config)
	if err != nil {
		return err
	}
	defer logs.Close()
	cmdLogger := logs.logger

	m, err := core.LoadMissionFromFile(r.Mission)
	if err != nil {
		cmdLogger.Error().Err(err).Msgf("Failed to load mission file %s", r.Mission)
		return fmt.Errorf("loading mission file %q: %w", r.Mission, err)
	}
	cmdLogger.Info().Msgf("Successfully loaded mission: %q", m.Name)

	if r.Coordinates != "" {
		table, err := core.LoadCoordinatesFile(r.Coordinates, cmdLogger)
		if err != nil {
			cmdLogger.Error().Err(err).Msgf("Failed to load coordinates file %s", r.Coordinates)
			return fmt.Errorf("loading coordinates file %q: %w", r.Coordinates, err)
		}
		if m.Coordinates == nil {
			m.Coordinates = make(map[string]string, len(table))
		}
		for k, v := range table {
			m.Coordinates[k] = v
		}
		cmdLogger.Info().Int("keys", len(table)).Msg("Loaded coordinates")
	}

	if err := core.ValidateMissionRunners(m); err != nil {
		cmdLogger.Error().Err(err).Msg("Mission runner validation failed")
		return fmt.Errorf("validating mission runners: %w", err)
	}
	for _, unknown := range core.UnknownSteps(m) {
		cmdLogger.Warn().Msgf("Step %s has no runner and will be skipped", unknown)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(ctx, r.Config, logs)
	if err != nil {
		return err
	}

	cmdLogger.Info().Msgf("Executing mission: %q", m.Name)
	result := engine.Execute(ctx, m)

	if r.JSON {
		if err := printResult(result); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("mission %q failed", m.Name)
	}
	if result.Screenshot != nil {
		cmdLogger.Info().Msgf("Mission completed successfully. Final screenshot at %q", *result.Screenshot)
	}
	return nil
}

func printResult(result types.ExecutionResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding execution result: %w", err)
	}
	return nil
}
