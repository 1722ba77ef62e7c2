// Defines the Process struct that models a single simulated job.
// Tracks burst progress, IO checks, the ready-queue deadline and the
// waiting/turnaround accounting used for the level summary.

package sim

import (
	"fmt"
	"math/rand"
)

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	ProcessNew      ProcessState = "new"
	ProcessReady    ProcessState = "ready"
	ProcessRunning  ProcessState = "running"
	ProcessIOWait   ProcessState = "io_wait"
	ProcessFinished ProcessState = "finished"
	// ProcessTerminated is reserved for a forced-kill action; no transition reaches it yet.
	ProcessTerminated ProcessState = "terminated"
)

// NoProcess is the id stored in an empty CPU slot. Process ids start at 1.
const NoProcess int64 = 0

// Process models a single job's lifecycle in the simulation.
type Process struct {
	ID   int64  // Arena key, unique within a level run
	Name string // Template name

	State ProcessState

	BurstTime      int // Total CPU ticks needed
	RemainingBurst int // CPU ticks still needed

	IORequestProbability float64 // Chance of requesting IO whenever the check cooldown expires
	IOCheckInterval      int     // Fixed cooldown between IO checks
	IOCheckCooldown      int     // Ticks until the next IO check
	IODuration           Range   // Range the IO service time is drawn from
	RemainingIO          int     // IO service ticks still needed while in IOWait

	Deadline      int // Max ticks allowed in Ready before the process is missed (0 = none)
	DeadlineTimer int // Ticks left before the deadline is missed

	WaitingTime    int   // Ticks spent in the ReadyQueue
	StartTick      int64 // Tick the process was created
	TurnaroundTime int64 // Ticks since creation, refreshed every tick until removal
}

// newProcess instantiates a process from a template. Every randomized
// parameter is drawn from rng so runs with the same seed are identical.
func newProcess(id int64, tpl ProcessTemplate, now int64, rng *rand.Rand) *Process {
	burst := max(tpl.BurstTime.Draw(rng), 1)
	interval := max(tpl.IOCheckInterval.Draw(rng), 1)

	p := &Process{
		ID:                   id,
		Name:                 tpl.Name,
		State:                ProcessNew,
		BurstTime:            burst,
		RemainingBurst:       burst,
		IORequestProbability: tpl.IORequestProbability,
		IOCheckInterval:      interval,
		IOCheckCooldown:      interval,
		IODuration:           tpl.IODuration,
		StartTick:            now,
	}

	if d := tpl.Deadline; d != nil && d.Ticks > 0 {
		if d.Probability >= 1 || (d.Probability > 0 && rng.Float64() < d.Probability) {
			p.Deadline = d.Ticks
		}
	}
	return p
}

// changeState moves the process to newState and applies the entry actions:
// entering Ready re-arms the deadline timer, entering Running clears it.
func (p *Process) changeState(newState ProcessState) {
	if p.State == newState {
		return
	}
	switch newState {
	case ProcessReady:
		p.DeadlineTimer = p.Deadline
	case ProcessRunning:
		p.DeadlineTimer = 0
	}
	p.State = newState
}

// tickReady ages a process waiting in the ReadyQueue.
// Returns true when its deadline expired; the caller removes it.
func (p *Process) tickReady() (missed bool) {
	if p.Deadline > 0 {
		p.DeadlineTimer--
		if p.DeadlineTimer <= 0 {
			return true
		}
	}
	p.WaitingTime++
	return false
}

// tickRunning executes one CPU tick. The IO roll only consumes rng when the
// process can actually request IO.
func (p *Process) tickRunning(rng *rand.Rand) {
	p.RemainingBurst--
	if p.IOCheckCooldown > 0 {
		p.IOCheckCooldown--
	}

	if p.RemainingBurst <= 0 {
		p.RemainingBurst = 0
		p.changeState(ProcessFinished)
		return
	}

	if p.IOCheckCooldown > 0 {
		return
	}
	p.IOCheckCooldown = p.IOCheckInterval
	if p.IORequestProbability > 0 && rng.Float64() < p.IORequestProbability {
		p.RemainingIO = max(p.IODuration.Draw(rng), 1)
		p.changeState(ProcessIOWait)
	}
}

// tickIO services one tick of IO. Returns true once IO completed and the
// process is Ready again.
func (p *Process) tickIO() (done bool) {
	p.RemainingIO--
	if p.RemainingIO > 0 {
		return false
	}
	p.RemainingIO = 0
	p.changeState(ProcessReady)
	return true
}

func (p *Process) refreshTurnaround(now int64) {
	p.TurnaroundTime = now - p.StartTick
}

// IsRunnable reports whether a CPU holding this process counts as busy.
func (p *Process) IsRunnable() bool {
	switch p.State {
	case ProcessReady, ProcessRunning, ProcessIOWait:
		return true
	}
	return false
}

// This method returns a human-readable string representation of a Process.
func (p Process) String() string {
	return fmt.Sprintf("Process: (ID: %d, Name: %s, State: %s, RemainingBurst: %d, DeadlineTimer: %d)",
		p.ID, p.Name, p.State, p.RemainingBurst, p.DeadlineTimer)
}
