// Package server exposes the mission engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/orviagent/orvi/pkg/log"
	"github.com/orviagent/orvi/pkg/log/sinks"
	"github.com/orviagent/orvi/pkg/types"
)

const (
	DefaultMaxConcurrent = 2
	// maxBodyBytes bounds an /execute request body.
	maxBodyBytes = 4 << 20
)

// Executor runs one mission. *core.MissionEngine satisfies it.
type Executor interface {
	Execute(ctx context.Context, m *types.Mission) types.ExecutionResult
}

// ExecuteRequest is the /execute body.
type ExecuteRequest struct {
	Sequences   []types.Sequence  `json:"sequences"`
	Coordinates map[string]string `json:"coordinates"`
}

type Options struct {
	// MaxConcurrent bounds the browser sessions alive at once. Excess
	// requests wait for a slot.
	MaxConcurrent int64
}

type Server struct {
	engine Executor
	logger types.Logger
	slots  *semaphore.Weighted
	// base outlives individual requests; missions stop only on process shutdown.
	base context.Context
}

func New(base context.Context, engine Executor, logger types.Logger, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		engine: engine,
		logger: logger,
		slots:  semaphore.NewWeighted(opts.MaxConcurrent),
		base:   base,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /execute", s.handleExecute)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	// Unknown fields (such as a misspelled "target") are rejected rather than
	// silently dropped.
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Rejected malformed execute request")
		writeJSON(w, http.StatusBadRequest, rejected(fmt.Errorf("decoding request: %w", err)))
		return
	}

	if err := s.slots.Acquire(r.Context(), 1); err != nil {
		s.logger.Warn().Err(err).Msg("Client went away while waiting for a browser slot")
		writeJSON(w, http.StatusServiceUnavailable, rejected(fmt.Errorf("waiting for a browser slot: %w", err)))
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	result := s.execute(&types.Mission{Sequences: req.Sequences, Coordinates: req.Coordinates})
	s.logger.Info().
		Bool("success", result.Success).
		Int("sequences", len(req.Sequences)).
		Dur("elapsed", time.Since(start)).
		Msg("Execute request finished")

	writeJSON(w, http.StatusOK, result)
}

// execute converts a panic escaping the engine into a failed result.
func (s *Server) execute(m *types.Mission) (result types.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Engine panicked")
			result = rejected(fmt.Errorf("%w: %v", types.ErrCriticalUnhandled, r))
		}
	}()
	return s.engine.Execute(s.base, m)
}

// rejected builds a failed result whose logs hold the single failure line.
func rejected(err error) types.ExecutionResult {
	memory := sinks.NewMemorySink()
	log.NewLogger(log.NewRouter(memory)).Error().Err(err).Msg("Request rejected")
	return types.ExecutionResult{Success: false, Logs: memory.Lines()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
