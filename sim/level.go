// sim/level.go
package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/procsched/schedsim/sim/trace"
)

// LevelPhase is the controller-level state machine: Initializing → Running → Over.
type LevelPhase string

const (
	PhaseInitializing LevelPhase = "initializing"
	PhaseRunning      LevelPhase = "running"
	PhaseOver         LevelPhase = "over"
)

// RunState holds the mutable counters of one level run.
type RunState struct {
	Phase               LevelPhase
	ElapsedTicks        int64
	RemainingTime       int
	FinishedProcesses   int
	MissedProcesses     int
	ProcessesInSystem   int
	TotalWaitingTime    int64
	TotalTurnaroundTime int64
	Paused              bool
	LevelOver           bool
	Success             bool
}

// Option configures optional LevelController collaborators.
type Option func(*LevelController)

// WithTelemetrySink registers a sink notified after every processed tick.
func WithTelemetrySink(sink TelemetrySink) Option {
	return func(l *LevelController) {
		l.sink = sink
	}
}

// WithTrace records input-adapter commands and lifecycle events into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(l *LevelController) {
		l.trace = st
	}
}

// WithTickDuration sets the scaled seconds one tick represents.
func WithTickDuration(seconds float64) Option {
	return func(l *LevelController) {
		l.tickDuration = seconds
	}
}

// LevelController is the top-level orchestrator. It owns the clock, every
// CPU, both queues and the process arena, and runs the ordered tick pipeline.
//
// Thread-safety: NOT thread-safe. Hosts serving it from several goroutines
// must serialize access.
type LevelController struct {
	config *LevelConfig
	seed   int64

	clock *Clock
	cpus  []*CPU
	ready *ReadyQueue
	io    *IOQueue
	procs map[int64]*Process
	rng   *PartitionedRNG

	nextID         int64
	spawnTimer     int
	stopConditions []Condition
	run            RunState
	summary        *Summary // frozen when the level ends

	tickDuration float64
	sink         TelemetrySink
	trace        *trace.SimulationTrace
}

// NewLevelController creates a controller in the Initializing phase.
// cfg may be nil; ResetLevel then reports ErrMissingConfig.
func NewLevelController(cfg *LevelConfig, seed int64, opts ...Option) *LevelController {
	l := &LevelController{
		config:       cfg,
		seed:         seed,
		ready:        &ReadyQueue{},
		procs:        make(map[int64]*Process),
		tickDuration: DefaultTickDuration,
		run:          RunState{Phase: PhaseInitializing},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetConfig replaces the level configuration. It takes effect at the next ResetLevel.
func (l *LevelController) SetConfig(cfg *LevelConfig) {
	l.config = cfg
}

// Config returns the level configuration (may be nil).
func (l *LevelController) Config() *LevelConfig {
	return l.config
}

// ResetLevel tears down every process and counter and starts a fresh run.
// It is idempotent: calling it twice leaves the same state as calling it once.
func (l *LevelController) ResetLevel() error {
	if l.config == nil {
		return ErrMissingConfig
	}
	if err := l.config.Validate(); err != nil {
		return err
	}
	cfg := l.config

	maxMultiplier := cfg.MaxMultiplier
	if maxMultiplier <= 0 {
		maxMultiplier = DefaultMaxMultiplier
	}
	if l.clock != nil && l.clock.MaxMultiplier() == maxMultiplier {
		l.clock.Reset()
	} else {
		multiplier := 1.0
		if l.clock != nil {
			multiplier = l.clock.Multiplier()
		}
		l.clock = NewClock(maxMultiplier, l.tickDuration)
		l.clock.SetMultiplier(multiplier)
	}

	// CPUs added during the previous run are dropped.
	l.cpus = l.cpus[:min(len(l.cpus), cfg.InitialCPUs)]
	for _, c := range l.cpus {
		c.Reset()
		c.contextSwitchTicks = cfg.ContextSwitchTicks
	}
	for len(l.cpus) < cfg.InitialCPUs {
		l.cpus = append(l.cpus, NewCPU(len(l.cpus), cfg.ContextSwitchTicks))
	}
	l.ready.Clear()
	l.io = NewIOQueue(cfg.IODispatchDelay)
	l.procs = make(map[int64]*Process)
	l.rng = NewPartitionedRNG(l.seed)

	l.nextID = 0
	l.spawnTimer = max(cfg.InitialSpawnDelay, 1)
	l.stopConditions = cfg.EffectiveStopConditions()
	l.summary = nil
	l.run = RunState{
		Phase:         PhaseRunning,
		RemainingTime: cfg.TimeLimit,
	}
	if l.trace != nil {
		l.trace.Reset()
	}

	l.clock.Start()
	logrus.Infof("Level %q started: %d CPUs, time limit %d, %d templates, seed %d",
		cfg.Name, len(l.cpus), cfg.TimeLimit, len(cfg.Templates), l.seed)
	return nil
}

// SetPaused pauses or resumes the clock. Independent of a zero multiplier.
func (l *LevelController) SetPaused(paused bool) {
	if l.clock == nil {
		return
	}
	if paused {
		l.clock.Pause()
	} else if l.run.Phase == PhaseRunning {
		l.clock.Resume()
	}
	l.run.Paused = l.clock.Paused()
}

// SetMultiplier sets the clock speed clamped to [0, max] and returns the applied value.
func (l *LevelController) SetMultiplier(m float64) float64 {
	if l.clock == nil {
		return 0
	}
	return l.clock.SetMultiplier(m)
}

// Clock returns the level clock (nil before the first ResetLevel).
func (l *LevelController) Clock() *Clock {
	return l.clock
}

// Advance feeds host frame time into the clock and processes every emitted
// tick. Returns the number of ticks processed.
func (l *LevelController) Advance(realDeltaSeconds float64) int {
	if l.run.Phase != PhaseRunning {
		return 0
	}
	n := 0
	for range l.clock.Advance(realDeltaSeconds) {
		l.step()
		n++
	}
	return n
}

// Step processes exactly one tick, bypassing the clock. Headless hosts and
// tests use it to drive the level deterministically. Returns false once the
// level is not running.
func (l *LevelController) Step() bool {
	if l.run.Phase != PhaseRunning {
		return false
	}
	l.step()
	return true
}

func (l *LevelController) state(now int64) *levelState {
	return &levelState{
		now:   now,
		procs: l.procs,
		ready: l.ready,
		run:   &l.run,
		rng:   l.rng,
		onEnd: l.recordEnd,
	}
}

// step runs the fixed per-tick pipeline.
func (l *LevelController) step() {
	now := l.run.ElapsedTicks + 1
	ls := l.state(now)

	for _, p := range l.procs {
		p.refreshTurnaround(now)
	}

	for _, c := range l.cpus {
		c.tick(ls)
	}

	if p := l.io.serviceHead(l.procs, l.rng.ForSubsystem(SubsystemIODispatch)); p != nil {
		l.ready.Enqueue(p.ID)
		logrus.Debugf("[tick %07d] process %d completed io", now, p.ID)
	}

	l.ageReadyQueue(ls)

	l.run.ElapsedTicks = now
	if l.config.TimeLimit > 0 {
		l.run.RemainingTime = max(l.run.RemainingTime-1, 0)
	}
	if EvaluateAny(l.stopConditions, l.Metrics()) {
		l.endLevel()
	} else {
		l.spawnTick(now)
	}

	if l.sink != nil {
		l.sink.OnTick(l.Snapshot())
		if l.run.Phase == PhaseOver {
			l.sink.OnLevelOver(*l.summary)
		}
	}
}

// ageReadyQueue runs deadline aging on every Ready process, removing those
// whose deadline expired.
func (l *LevelController) ageReadyQueue(ls *levelState) {
	for _, id := range l.ready.Items() {
		p := l.procs[id]
		if p == nil || !p.tickReady() {
			continue
		}
		l.ready.Remove(id)
		delete(l.procs, id)
		l.run.MissedProcesses++
		l.run.ProcessesInSystem--
		logrus.Debugf("[tick %07d] process %d missed its deadline", ls.now, id)
		l.recordEnd(p, trace.EventMissed)
	}
}

// spawnTick counts down the spawn timer and, when it expires, instantiates a
// process from a random template if the system has room.
func (l *LevelController) spawnTick(now int64) {
	l.spawnTimer--
	if l.spawnTimer > 0 {
		return
	}
	rng := l.rng.ForSubsystem(SubsystemSpawn)
	l.spawnTimer = max(l.config.SpawnInterval.Draw(rng), 1)

	if len(l.config.Templates) == 0 {
		logrus.Debugf("[tick %07d] spawn skipped: no process templates", now)
		return
	}
	if limit := l.config.MaxProcessesInSystem; limit > 0 && l.run.ProcessesInSystem >= limit {
		return
	}

	tpl := l.config.Templates[rng.Intn(len(l.config.Templates))]
	l.nextID++
	p := newProcess(l.nextID, tpl, now, rng)
	p.changeState(ProcessReady)
	l.procs[p.ID] = p
	l.ready.Enqueue(p.ID)
	l.run.ProcessesInSystem++

	logrus.Debugf("[tick %07d] spawned %s", now, p)
	if l.trace != nil {
		l.trace.RecordLifecycle(trace.LifecycleRecord{Tick: now, ProcessID: p.ID, Name: p.Name, Event: trace.EventSpawned})
	}
}

// endLevel enters Over, judges the win conditions, freezes the clock and
// computes the final statistics.
func (l *LevelController) endLevel() {
	l.run.Phase = PhaseOver
	l.run.LevelOver = true
	l.run.Success = EvaluateAll(l.config.WinConditions, l.Metrics())
	l.clock.Pause()
	l.run.Paused = true

	s := l.computeSummary()
	l.summary = &s
	if l.run.Success {
		logrus.Infof("[tick %07d] Level %q over: success", l.run.ElapsedTicks, l.config.Name)
	} else {
		logrus.Infof("[tick %07d] Level %q over: failed", l.run.ElapsedTicks, l.config.Name)
	}
}

func (l *LevelController) recordEnd(p *Process, event string) {
	if l.trace == nil {
		return
	}
	l.trace.RecordLifecycle(trace.LifecycleRecord{
		Tick:           l.run.ElapsedTicks + 1,
		ProcessID:      p.ID,
		Name:           p.Name,
		Event:          event,
		WaitingTime:    int64(p.WaitingTime),
		TurnaroundTime: p.TurnaroundTime,
	})
}

// Metrics returns the current named metrics used by stop and win conditions.
// An unlimited level reports remainingTime as math.MaxInt32 so that
// "remainingTime <= 0" never fires.
func (l *LevelController) Metrics() MetricValues {
	remaining := l.run.RemainingTime
	if l.config != nil && l.config.TimeLimit == 0 {
		remaining = math.MaxInt32
	}
	return MetricValues{
		MetricRemainingTime:       remaining,
		MetricMissedProcesses:     l.run.MissedProcesses,
		MetricFinishedProcesses:   l.run.FinishedProcesses,
		MetricProcessesInSystem:   l.run.ProcessesInSystem,
		MetricTimeElapsed:         int(l.run.ElapsedTicks),
		MetricNumCPUs:             len(l.cpus),
		MetricTotalWaitingTime:    int(l.run.TotalWaitingTime),
		MetricTotalTurnaroundTime: int(l.run.TotalTurnaroundTime),
	}
}

// RunState returns a copy of the run counters.
func (l *LevelController) RunState() RunState {
	return l.run
}

// Phase returns the controller phase.
func (l *LevelController) Phase() LevelPhase {
	return l.run.Phase
}

// NumCPUs returns the number of active CPUs.
func (l *LevelController) NumCPUs() int {
	return len(l.cpus)
}

// CPU returns the CPU with the given id, or nil.
func (l *LevelController) CPU(id int) *CPU {
	if id < 0 || id >= len(l.cpus) {
		return nil
	}
	return l.cpus[id]
}

// Process returns the live process with the given id, or nil once it was
// removed (finished, missed or reset).
func (l *LevelController) Process(id int64) *Process {
	return l.procs[id]
}

// ReadyQueue returns the ready queue.
func (l *LevelController) ReadyQueue() *ReadyQueue {
	return l.ready
}

// IOQueue returns the IO queue (nil before the first ResetLevel).
func (l *LevelController) IOQueue() *IOQueue {
	return l.io
}
