package cli

import (
	"context"
	"fmt"

	"github.com/orviagent/orvi/pkg/browser"
	"github.com/orviagent/orvi/pkg/captcha"
	"github.com/orviagent/orvi/pkg/config"
	"github.com/orviagent/orvi/pkg/core"
	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/oracle"
	"github.com/orviagent/orvi/pkg/types"
)

// logging is the console + file pipeline shared by a command and every
// mission it starts.
type logging struct {
	router *log.Router
	sinks  []log.Sink
	logger types.Logger
}

func newLogging(cfg config.Config) (*logging, error) {
	consoleSink := sinks.NewConsoleSink()
	fileSink, err := sinks.NewFileSink(cfg.LogSink)
	if err != nil {
		return nil, fmt.Errorf("creating file log sink: %w", err)
	}

	shared := []log.Sink{consoleSink, fileSink}
	router := log.NewRouter(shared...)
	return &logging{
		router: router,
		sinks:  shared,
		logger: log.NewLogger(router),
	}, nil
}

func (l *logging) Close() {
	l.logger.Info().Msg("Shutting down logger...")
	if err := l.router.Close(); err != nil {
		fmt.Printf("Error during log shutdown: %v\n", err)
	}
}

// newEngine wires the browser, oracle and captcha resolver described by cfg.
// A missing API key leaves that capability unavailable rather than failing.
func newEngine(ctx context.Context, cfg config.Config, logs *logging) (*core.MissionEngine, error) {
	logger := logs.logger
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	var vision types.Oracle
	if cfg.VisionAPIKey != "" {
		g, err := oracle.NewGemini(ctx, cfg.VisionAPIKey, cfg.VisionModel, logger)
		if err != nil {
			return nil, fmt.Errorf("creating vision oracle: %w", err)
		}
		vision = g
	}

	resolver := captcha.NewAntiCaptcha(cfg.CaptchaAPIKey, logger)

	launcher := &browser.Launcher{
		Headless: cfg.Headless,
		ExecPath: cfg.ChromePath,
		Logger:   logger,
	}

	return core.NewMissionEngine(core.EngineConfig{
		Drivers:        launcher,
		Oracle:         vision,
		Captcha:        resolver,
		Sinks:          logs.sinks,
		ArtifactDir:    cfg.ArtifactDir,
		OracleFallback: cfg.CaptchaOracleFallback,
	}), nil
}
