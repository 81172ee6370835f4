package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orviagent/orvi/pkg/config"
	"github.com/orviagent/orvi/pkg/server"

	// Ensure all runner implementations are initialized
	_ "github.com/orviagent/orvi/pkg/steprunner/runners"
)

type ServeCmd struct {
	config.Config `embed:""`

	Host            string        `help:"Interface to listen on." default:"0.0.0.0" env:"ORVI_HOST"`
	Port            int           `help:"Port to listen on." default:"8000" env:"ORVI_PORT"`
	MaxConcurrent   int64         `help:"Browser sessions allowed at once; excess requests wait." default:"2" env:"ORVI_MAX_CONCURRENT"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"30s"`
}

func (s *ServeCmd) Run() error {
	logs, err := newLogging(s.Config)
	if err != nil {
		return err
	}
	defer logs.Close()
	cmdLogger := logs.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(ctx, s.Config, logs)
	if err != nil {
		return err
	}

	srv := server.New(ctx, engine, cmdLogger, server.Options{MaxConcurrent: s.MaxConcurrent})
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmdLogger.Info().Msgf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on %s: %w", httpServer.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cmdLogger.Info().Msg("Received shutdown signal, shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		cmdLogger.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	cmdLogger.Info().Msg("Server stopped")
	return nil
}
