package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/recorder"
	"github.com/procsched/schedsim/sim/trace"
)

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
}

func do(srv *Server, method, path string, body any) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env envelope
	Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed(), w.Body.String())
	return w.Code, env
}

func snapshotOf(env envelope) sim.LevelSnapshot {
	var snap sim.LevelSnapshot
	Expect(json.Unmarshal(env.Data, &snap)).To(Succeed())
	return snap
}

// singleTemplateLevel spawns a process every tick with a fixed burst and no IO.
func singleTemplateLevel() *sim.LevelConfig {
	cfg := sim.DefaultLevelConfig()
	cfg.Name = "http"
	cfg.SpawnInterval = sim.Fixed(1)
	cfg.ContextSwitchTicks = 2
	cfg.Templates = []sim.ProcessTemplate{{Name: "job", BurstTime: sim.Fixed(50)}}
	return cfg
}

var _ = Describe("Server", func() {
	var (
		level *sim.LevelController
		st    *trace.SimulationTrace
		srv   *Server
	)

	BeforeEach(func() {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelAll})
		level = sim.NewLevelController(singleTemplateLevel(), 1, sim.WithTrace(st))
		Expect(level.ResetLevel()).To(Succeed())
		srv = New(level, 1, WithTrace(st))
	})

	Context("discovery and health", func() {
		It("should list endpoints", func() {
			code, env := do(srv, "GET", "/api/v1/", nil)
			Expect(code).To(Equal(http.StatusOK))
			Expect(env.Status).To(Equal("ok"))
			Expect(env.RequestID).To(HavePrefix("req_"))
		})

		It("should report the level phase", func() {
			_, env := do(srv, "GET", "/api/v1/health", nil)
			var h healthResponse
			Expect(json.Unmarshal(env.Data, &h)).To(Succeed())
			Expect(h.Phase).To(Equal(string(sim.PhaseRunning)))
			Expect(h.Recorder).To(Equal("disabled"))
		})
	})

	Context("stepping", func() {
		It("should process the requested ticks", func() {
			code, env := do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 3})
			Expect(code).To(Equal(http.StatusOK))

			var resp struct {
				Processed int               `json:"processed"`
				Level     sim.LevelSnapshot `json:"level"`
			}
			Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
			Expect(resp.Processed).To(Equal(3))
			Expect(resp.Level.Tick).To(Equal(int64(3)))
			Expect(resp.Level.ReadyQueue).To(HaveLen(3))
		})

		It("should default to one tick without a body", func() {
			_, env := do(srv, "POST", "/api/v1/level/step", nil)
			var resp struct {
				Processed int `json:"processed"`
			}
			Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
			Expect(resp.Processed).To(Equal(1))
		})

		It("should reject an out of range tick count", func() {
			code, env := do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 0})
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(env.Error.Code).To(Equal(ErrCodeBadRequest))
		})
	})

	Context("commands", func() {
		BeforeEach(func() {
			do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 2})
		})

		It("should assign a ready process to an idle cpu", func() {
			code, env := do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 0})
			Expect(code).To(Equal(http.StatusOK))

			snap := snapshotOf(env)
			Expect(snap.CPUs[0].Current).To(Equal(int64(1)))
			Expect(snap.CPUs[0].State).To(Equal(sim.CPURunning))
			Expect(snap.ReadyQueue).To(Equal([]int64{2}))
		})

		It("should start a context switch when preempting", func() {
			do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 0})
			code, env := do(srv, "POST", "/api/v1/processes/2/assign", map[string]int{"cpu": 0})
			Expect(code).To(Equal(http.StatusOK))

			snap := snapshotOf(env)
			Expect(snap.CPUs[0].State).To(Equal(sim.CPUContextSwitch))
			Expect(snap.CPUs[0].Incoming).To(Equal(int64(2)))
			Expect(snap.ReadyQueue).To(Equal([]int64{1}))
		})

		It("should answer 409 for an illegal command and leave the level untouched", func() {
			_, before := do(srv, "GET", "/api/v1/level", nil)

			code, env := do(srv, "POST", "/api/v1/processes/1/io", nil)
			Expect(code).To(Equal(http.StatusConflict))
			Expect(env.Error.Code).To(Equal(ErrCodeRejected))

			_, after := do(srv, "GET", "/api/v1/level", nil)
			Expect(snapshotOf(after)).To(Equal(snapshotOf(before)))
		})

		It("should reject an unknown process id format", func() {
			code, _ := do(srv, "POST", "/api/v1/processes/abc/ready", nil)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("should reject assign without a cpu", func() {
			code, _ := do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{})
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("should return a running process to the ready queue", func() {
			do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 1})
			code, env := do(srv, "POST", "/api/v1/processes/1/ready", nil)
			Expect(code).To(Equal(http.StatusOK))

			snap := snapshotOf(env)
			Expect(snap.CPUs[1].State).To(Equal(sim.CPUIdle))
			Expect(snap.ReadyQueue).To(Equal([]int64{2, 1}))
		})

		It("should add cpus up to the maximum", func() {
			for i := 0; i < 2; i++ {
				code, _ := do(srv, "POST", "/api/v1/cpus", nil)
				Expect(code).To(Equal(http.StatusOK))
			}
			code, _ := do(srv, "POST", "/api/v1/cpus", nil)
			Expect(code).To(Equal(http.StatusConflict))
		})

		It("should count commands in the trace summary", func() {
			do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 0})
			do(srv, "POST", "/api/v1/processes/1/io", nil)

			_, env := do(srv, "GET", "/api/v1/trace", nil)
			var sum trace.TraceSummary
			Expect(json.Unmarshal(env.Data, &sum)).To(Succeed())
			Expect(sum.TotalCommands).To(Equal(2))
			Expect(sum.AcceptedCount).To(Equal(1))
			Expect(sum.Spawned).To(Equal(2))
		})
	})

	Context("clock control", func() {
		It("should clamp the multiplier", func() {
			_, env := do(srv, "PUT", "/api/v1/level/speed", map[string]float64{"multiplier": 100})
			var resp map[string]float64
			Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
			Expect(resp["multiplier"]).To(Equal(sim.DefaultMaxMultiplier))
		})

		It("should reject a speed request without a multiplier", func() {
			code, _ := do(srv, "PUT", "/api/v1/level/speed", map[string]string{})
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("should not advance while paused", func() {
			do(srv, "POST", "/api/v1/level/pause", nil)
			Expect(srv.frame(5)).To(Equal(0))

			do(srv, "POST", "/api/v1/level/resume", nil)
			Expect(srv.frame(1)).To(Equal(1))
		})

		It("should advance at most one tick per frame", func() {
			Expect(srv.frame(10)).To(Equal(1))
			_, env := do(srv, "GET", "/api/v1/level", nil)
			Expect(snapshotOf(env).Tick).To(Equal(int64(1)))
		})

		It("should stop the frame loop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				srv.Run(ctx, time.Millisecond)
				close(done)
			}()
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})

	Context("reset", func() {
		It("should restart the level from tick zero", func() {
			do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 5})
			code, env := do(srv, "POST", "/api/v1/level/reset", nil)
			Expect(code).To(Equal(http.StatusOK))

			snap := snapshotOf(env)
			Expect(snap.Tick).To(BeZero())
			Expect(snap.Processes).To(BeEmpty())
		})
	})

	Context("with a recorder", func() {
		var rec *recorder.Recorder

		BeforeEach(func() {
			var err error
			rec, err = recorder.Open(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			level = sim.NewLevelController(singleTemplateLevel(), 1, sim.WithTelemetrySink(rec))
			Expect(level.ResetLevel()).To(Succeed())
			srv = New(level, 1, WithRecorder(rec))
		})

		AfterEach(func() {
			Expect(rec.Close()).To(Succeed())
		})

		It("should start a new recorded run on reset", func() {
			code, _ := do(srv, "POST", "/api/v1/level/reset", nil)
			Expect(code).To(Equal(http.StatusOK))
			Expect(rec.RunID()).NotTo(BeEmpty())

			do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 4})
			Expect(rec.Flush()).To(Succeed())
			n, err := rec.TickCount(context.Background(), rec.RunID())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
		})

		It("should store the finished run's commands before a reset", func() {
			// GIVEN a traced, recorded run with one command issued
			st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelAll})
			level = sim.NewLevelController(singleTemplateLevel(), 1, sim.WithTelemetrySink(rec), sim.WithTrace(st))
			Expect(level.ResetLevel()).To(Succeed())
			first, err := rec.StartRun(context.Background(), "http", 1)
			Expect(err).NotTo(HaveOccurred())
			srv = New(level, 1, WithRecorder(rec), WithTrace(st))
			do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 2})
			do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 0})

			// WHEN the level is reset
			code, _ := do(srv, "POST", "/api/v1/level/reset", nil)
			Expect(code).To(Equal(http.StatusOK))

			// THEN the first run kept its command and lifecycle rows
			n, err := rec.CommandCount(context.Background(), first)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			events, err := rec.EventCounts(context.Background(), first)
			Expect(err).NotTo(HaveOccurred())
			Expect(events[trace.EventSpawned]).To(Equal(2))
			Expect(rec.RunID()).NotTo(Equal(first))

			// WHEN the server stops after a command in the second run
			do(srv, "POST", "/api/v1/level/step", map[string]int{"ticks": 1})
			do(srv, "POST", "/api/v1/processes/1/assign", map[string]int{"cpu": 0})
			Expect(srv.FinishRun(context.Background())).To(Succeed())

			// THEN the second run's trace is stored too
			n, err = rec.CommandCount(context.Background(), rec.RunID())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("should report the run id in health", func() {
			do(srv, "POST", "/api/v1/level/reset", nil)
			_, env := do(srv, "GET", "/api/v1/health", nil)
			var h healthResponse
			Expect(json.Unmarshal(env.Data, &h)).To(Succeed())
			Expect(h.Recorder).To(Equal(rec.RunID()))
		})
	})

	It("should report tracing disabled without a trace", func() {
		srv = New(level, 1)
		code, env := do(srv, "GET", "/api/v1/trace", nil)
		Expect(code).To(Equal(http.StatusNotFound))
		Expect(env.Error.Message).To(ContainSubstring("--trace-level"))
	})
})
