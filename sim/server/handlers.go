package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/trace"
)

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Doc    string `json:"doc"`
}

var endpoints = []endpoint{
	{"GET", "/api/v1/health", "service health"},
	{"GET", "/api/v1/level", "level snapshot"},
	{"GET", "/api/v1/level/summary", "level statistics"},
	{"GET", "/api/v1/level/metrics", "named metrics used by stop and win conditions"},
	{"POST", "/api/v1/level/reset", "restart the level"},
	{"POST", "/api/v1/level/pause", "pause the clock"},
	{"POST", "/api/v1/level/resume", "resume the clock"},
	{"PUT", "/api/v1/level/speed", "set the time multiplier {\"multiplier\": 2}"},
	{"POST", "/api/v1/level/step", "process ticks immediately {\"ticks\": 1}"},
	{"POST", "/api/v1/processes/{id}/assign", "assign a ready process to a cpu {\"cpu\": 0}"},
	{"POST", "/api/v1/processes/{id}/io", "move a process blocked on io to the io queue"},
	{"POST", "/api/v1/processes/{id}/ready", "return a process on a cpu to the ready queue"},
	{"POST", "/api/v1/cpus", "add a cpu"},
	{"GET", "/api/v1/trace", "command and lifecycle trace summary"},
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), map[string]any{
		"name":      "schedsim API",
		"endpoints": endpoints,
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Phase     string `json:"phase"`
	Recorder  string `json:"recorder"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Recorder:  "disabled",
	}
	s.withLevel(func(l *sim.LevelController) {
		resp.Phase = string(l.Phase())
		if s.rec != nil {
			resp.Recorder = s.rec.RunID()
		}
	})
	respondOK(w, RequestIDFromContext(r.Context()), resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap *sim.LevelSnapshot
	s.withLevel(func(l *sim.LevelController) { snap = l.Snapshot() })
	respondOK(w, RequestIDFromContext(r.Context()), snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var sum sim.Summary
	s.withLevel(func(l *sim.LevelController) { sum = l.Summary() })
	respondOK(w, RequestIDFromContext(r.Context()), sum)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m sim.MetricValues
	s.withLevel(func(l *sim.LevelController) { m = l.Metrics() })
	respondOK(w, RequestIDFromContext(r.Context()), m)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	var err error
	var snap *sim.LevelSnapshot
	s.withLevel(func(l *sim.LevelController) {
		if err = s.saveTrace(r.Context()); err != nil {
			return
		}
		if err = l.ResetLevel(); err != nil {
			return
		}
		if err = s.startRun(r.Context()); err != nil {
			return
		}
		snap = l.Snapshot()
	})
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondOK(w, reqID, snap)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.setPaused(w, r, true)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.setPaused(w, r, false)
}

func (s *Server) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	var state sim.RunState
	s.withLevel(func(l *sim.LevelController) {
		l.SetPaused(paused)
		state = l.RunState()
	})
	respondOK(w, RequestIDFromContext(r.Context()), map[string]any{"paused": state.Paused})
}

type speedRequest struct {
	Multiplier *float64 `json:"multiplier"`
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Multiplier == nil {
		respondError(w, reqID, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"multiplier\": <number>}")
		return
	}
	var applied float64
	s.withLevel(func(l *sim.LevelController) { applied = l.SetMultiplier(*req.Multiplier) })
	respondOK(w, reqID, map[string]any{"multiplier": applied})
}

type stepRequest struct {
	Ticks int `json:"ticks"`
}

// maxStepTicks bounds one step request.
const maxStepTicks = 10000

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	req := stepRequest{Ticks: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, reqID, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("invalid body: %v", err))
			return
		}
	}
	if req.Ticks < 1 || req.Ticks > maxStepTicks {
		respondError(w, reqID, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("ticks must be in [1, %d]", maxStepTicks))
		return
	}
	processed := 0
	var snap *sim.LevelSnapshot
	s.withLevel(func(l *sim.LevelController) {
		for processed < req.Ticks && l.Step() {
			processed++
		}
		snap = l.Snapshot()
	})
	respondOK(w, reqID, map[string]any{"processed": processed, "level": snap})
}

type assignRequest struct {
	CPU *int `json:"cpu"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id, ok := processID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPU == nil {
		respondError(w, reqID, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"cpu\": <id>}")
		return
	}
	s.command(w, r, func(l *sim.LevelController) bool { return l.Assign(id, *req.CPU) })
}

func (s *Server) handleMoveToIO(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}
	s.command(w, r, func(l *sim.LevelController) bool { return l.MoveToIOQueue(id) })
}

func (s *Server) handleReturnToReady(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}
	s.command(w, r, func(l *sim.LevelController) bool { return l.ReturnToReadyQueue(id) })
}

func (s *Server) handleAddCPU(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(l *sim.LevelController) bool { return l.AddCPU() })
}

// command runs one input-adapter command. Illegal commands answer 409 with
// the unchanged snapshot semantics: the level is left untouched.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(l *sim.LevelController) bool) {
	reqID := RequestIDFromContext(r.Context())
	var accepted bool
	var snap *sim.LevelSnapshot
	s.withLevel(func(l *sim.LevelController) {
		accepted = fn(l)
		snap = l.Snapshot()
	})
	if !accepted {
		respondError(w, reqID, http.StatusConflict, ErrCodeRejected, "command rejected in the current level state")
		return
	}
	respondOK(w, reqID, snap)
}

func processID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("invalid process id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.trace == nil {
		respondError(w, reqID, http.StatusNotFound, ErrCodeNotFound, "tracing is disabled; start with --trace-level")
		return
	}
	var sum *trace.TraceSummary
	s.withLevel(func(_ *sim.LevelController) { sum = trace.Summarize(s.trace) })
	respondOK(w, reqID, sum)
}
