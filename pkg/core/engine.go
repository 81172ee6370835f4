package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orviagent/orvi/pkg/artifacts"
	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/security"
	"github.com/orviagent/orvi/pkg/types"
)

// EngineConfig wires the capabilities a MissionEngine hands to every mission.
type EngineConfig struct {
	Drivers types.DriverFactory
	Oracle  types.Oracle
	Captcha types.CaptchaResolver
	// Sinks are shared by every mission; each mission also gets its own
	// memory sink for the returned logs.
	Sinks          []log.Sink
	ArtifactDir    string
	Timing         types.Timing
	OracleFallback bool

	Cooldown           time.Duration
	ValidationCooldown time.Duration
	Stabilization      time.Duration
}

type MissionEngine struct {
	cfg   EngineConfig
	newID func() string
}

func NewMissionEngine(cfg EngineConfig) *MissionEngine {
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "screenshots"
	}
	if cfg.Timing == (types.Timing{}) {
		cfg.Timing = types.DefaultTiming()
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.ValidationCooldown == 0 {
		cfg.ValidationCooldown = DefaultValidationCooldown
	}
	if cfg.Stabilization == 0 {
		cfg.Stabilization = DefaultStabilization
	}
	return &MissionEngine{
		cfg:   cfg,
		newID: uuid.NewString,
	}
}

// Execute runs every sequence of m in order against a fresh browser session.
// It never panics and never returns an error: every failure is reported
// through the result.
func (e *MissionEngine) Execute(ctx context.Context, m *Mission) types.ExecutionResult {
	missionID := e.newID()
	start := time.Now()
	if m == nil {
		m = &Mission{}
	}

	memory := sinks.NewMemorySink()
	memory.MinLevel = types.InfoLevel
	router := log.NewRouter(append(append([]log.Sink{}, e.cfg.Sinks...), memory)...)
	router.Redactor = security.NewCoordinateRedactor(m.Coordinates)
	logger := log.NewLogger(router).With().Str("mission", missionID).Logger()

	fail := func(err error, msg string) types.ExecutionResult {
		logger.Error().Err(err).Msg(msg)
		return types.ExecutionResult{Success: false, Logs: memory.Lines()}
	}

	// Rejected before a browser session exists, so there is no final screenshot.
	if err := ValidateMissionStructure(m); err != nil {
		return fail(fmt.Errorf("%w: invalid mission: %w", types.ErrCriticalUnhandled, err), "Mission rejected")
	}
	logger.Info().Int("sequences", len(m.Sequences)).Msg("Mission started")

	tracker, err := artifacts.NewTracker(e.cfg.ArtifactDir, missionID)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", types.ErrCriticalUnhandled, err), "Could not prepare artifact directory")
	}

	var driver types.Driver
	err = guard(func() error {
		var openErr error
		driver, openErr = e.cfg.Drivers.Open(ctx)
		return openErr
	})
	if err != nil {
		return fail(fmt.Errorf("%w: opening browser session: %w", types.ErrCriticalUnhandled, err), "Could not start browser session")
	}

	success := false
	err = guard(func() error {
		success = e.runSequences(ctx, m, driver, tracker, router.Redactor, logger)
		return nil
	})
	if err != nil {
		success = false
		logger.Error().Err(err).Msg("Mission aborted")
	}

	var screenshot *string
	err = guard(func() error {
		path := tracker.Path(types.ArtifactKey{Kind: types.ArtifactFinal})
		if err := driver.Screenshot(ctx, path); err != nil {
			return err
		}
		tracker.Record(path)
		screenshot = &path
		logger.Info().Str("path", path).Msg("Final screenshot saved")
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Final screenshot failed")
	}

	if err := guard(driver.Close); err != nil {
		logger.Warn().Err(err).Msg("Closing browser session failed")
	}

	e.cleanup(tracker, success, logger)

	if success {
		logger.Info().Msgf("Mission succeeded in %s", formatElapsed(time.Since(start)))
	} else {
		logger.Error().Msgf("Mission failed after %s", formatElapsed(time.Since(start)))
	}

	return types.ExecutionResult{
		Success:    success,
		Screenshot: screenshot,
		Logs:       memory.Lines(),
	}
}

func (e *MissionEngine) runSequences(ctx context.Context, m *Mission, driver types.Driver, tracker *artifacts.Tracker, redactor *security.Redactor, logger Logger) bool {
	interp := &StepInterpreter{
		Driver:         driver,
		Oracle:         e.cfg.Oracle,
		Captcha:        e.cfg.Captcha,
		Coordinates:    m.Coordinates,
		Artifacts:      tracker,
		Timing:         e.cfg.Timing,
		OracleFallback: e.cfg.OracleFallback,
		Redactor:       redactor,
	}
	runner := &SequenceRunner{
		Interpreter: interp,
		Poller: &ValidationPoller{
			Driver:    driver,
			Oracle:    e.cfg.Oracle,
			Artifacts: tracker,
		},
		Driver:             driver,
		Cooldown:           e.cfg.Cooldown,
		ValidationCooldown: e.cfg.ValidationCooldown,
		Stabilization:      e.cfg.Stabilization,
	}

	for i, seq := range m.Sequences {
		res := runner.Run(ctx, i+1, seq, logger)
		if !res.Success {
			logger.Error().Err(res.Err).Msg("Aborting mission")
			return false
		}
	}
	return true
}

func (e *MissionEngine) cleanup(tracker *artifacts.Tracker, success bool, logger Logger) {
	report := tracker.Cleanup(success)
	if !success {
		logger.Info().Int("kept", len(tracker.Files())).Msg("Mission failed, keeping all artifacts for debugging")
		return
	}
	for path, err := range report.Failed {
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete artifact")
	}
	logger.Info().Int("deleted", len(report.Deleted)).Msg("Cleaned up intermediate artifacts")
	if report.Kept != "" {
		logger.Info().Str("path", report.Kept).Msg("Kept final proof")
	}
}

// guard runs fn and converts a panic into ErrCriticalUnhandled.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", types.ErrCriticalUnhandled, r)
		}
	}()
	return fn()
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
