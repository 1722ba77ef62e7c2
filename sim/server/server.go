// Package server is the HTTP input adapter for a running level. It exposes
// the level snapshot and summary as JSON telemetry and accepts the scheduling
// commands a drag-and-drop client would issue. A frame loop advances the
// level clock in real time.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/recorder"
	"github.com/procsched/schedsim/sim/trace"
)

// Server serializes every access to the level behind one mutex: HTTP
// handlers and the frame loop never touch the controller concurrently.
type Server struct {
	router    chi.Router
	startTime time.Time

	mu    sync.Mutex
	level *sim.LevelController
	trace *trace.SimulationTrace
	rec   *recorder.Recorder
	seed  int64
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithRecorder persists every run started through the server.
// The recorder must also be registered as the level's telemetry sink.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(s *Server) {
		s.rec = rec
	}
}

// WithTrace exposes the level's trace summary at /api/v1/trace.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Server) {
		s.trace = st
	}
}

// New creates a Server for level with all routes registered.
// The level must already be reset (Running).
func New(level *sim.LevelController, seed int64, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		startTime: time.Now(),
		level:     level,
		seed:      seed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/level", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Get("/summary", s.handleSummary)
			r.Get("/metrics", s.handleMetrics)
			r.Post("/reset", s.handleReset)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Put("/speed", s.handleSpeed)
			r.Post("/step", s.handleStep)
		})

		r.Route("/processes/{id}", func(r chi.Router) {
			r.Post("/assign", s.handleAssign)
			r.Post("/io", s.handleMoveToIO)
			r.Post("/ready", s.handleReturnToReady)
		})

		r.Post("/cpus", s.handleAddCPU)
		r.Get("/trace", s.handleTrace)
	})
}

// withLevel runs fn while holding the level lock.
func (s *Server) withLevel(fn func(l *sim.LevelController)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.level)
}

// Run drives the level clock with real elapsed time every interval until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			s.frame(delta)
		}
	}
}

// frame feeds one frame of real time into the level.
func (s *Server) frame(deltaSeconds float64) int {
	var n int
	s.withLevel(func(l *sim.LevelController) {
		n = l.Advance(deltaSeconds)
		if n > 0 && l.Phase() == sim.PhaseOver {
			logrus.Infof("level over at tick %d", l.RunState().ElapsedTicks)
		}
	})
	return n
}

// saveTrace stores the trace of the run in progress. Callers hold s.mu.
func (s *Server) saveTrace(ctx context.Context) error {
	if s.rec == nil || s.trace == nil || s.rec.RunID() == "" {
		return nil
	}
	return s.rec.RecordTrace(ctx, s.trace)
}

// FinishRun stores the trace of the run in progress. Call it once when the
// server stops, before the recorder is closed.
func (s *Server) FinishRun(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTrace(ctx)
}

// startRun registers a new recorder run for the current level.
// Callers hold s.mu.
func (s *Server) startRun(ctx context.Context) error {
	if s.rec == nil {
		return nil
	}
	name := ""
	if cfg := s.level.Config(); cfg != nil {
		name = cfg.Name
	}
	_, err := s.rec.StartRun(ctx, name, s.seed)
	return err
}
