package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsched/schedsim/sim/trace"
)

// CPUState represents the allocation state of a CPU.
type CPUState string

const (
	CPUIdle          CPUState = "idle"
	CPURunning       CPUState = "running"
	CPUContextSwitch CPUState = "context_switch"
)

// CPU is one execution unit. It owns at most one current process and, during
// a context switch, one incoming process. Slots hold process ids.
type CPU struct {
	ID    int
	State CPUState

	Current  int64 // NoProcess when empty
	Incoming int64 // set only during ContextSwitch

	Countdown          int   // ticks left in the current context switch
	TotalTimeRunning   int64 // busy ticks
	contextSwitchTicks int
}

// NewCPU creates an idle CPU that pays contextSwitchTicks when preempted.
func NewCPU(id, contextSwitchTicks int) *CPU {
	return &CPU{
		ID:                 id,
		State:              CPUIdle,
		contextSwitchTicks: contextSwitchTicks,
	}
}

// levelState is the short-lived context handed to components during a tick
// or a command. It replaces stored back-references to the controller.
type levelState struct {
	now   int64
	procs map[int64]*Process
	ready *ReadyQueue
	run   *RunState
	rng   *PartitionedRNG
	onEnd func(p *Process, event string)
}

// accept offers a Ready process taken from the ReadyQueue. It returns false
// with a reason when the offer is illegal; nothing changes in that case.
//   - Idle: p becomes current and Running immediately.
//   - Running: the current process is demoted to Ready and re-enqueued, p is
//     held as incoming, and the CPU pays the context-switch countdown.
//   - ContextSwitch: rejected.
func (c *CPU) accept(p *Process, ls *levelState) (bool, string) {
	if p.State != ProcessReady {
		return false, fmt.Sprintf("process state is %s", p.State)
	}
	if !ls.ready.Contains(p.ID) {
		return false, "process is not in the ready queue"
	}

	switch c.State {
	case CPUIdle:
		ls.ready.Remove(p.ID)
		c.Current = p.ID
		p.changeState(ProcessRunning)
		c.State = CPURunning
		return true, ""

	case CPURunning:
		cur := ls.procs[c.Current]
		if cur != nil && cur.State == ProcessIOWait {
			return false, "current process is blocked on io"
		}
		ls.ready.Remove(p.ID)
		if cur != nil {
			cur.changeState(ProcessReady)
			ls.ready.Enqueue(cur.ID)
		}
		c.Current = NoProcess
		if c.contextSwitchTicks <= 0 {
			c.Current = p.ID
			p.changeState(ProcessRunning)
			return true, ""
		}
		c.Incoming = p.ID
		c.Countdown = c.contextSwitchTicks
		c.State = CPUContextSwitch
		return true, ""

	case CPUContextSwitch:
		return false, "cpu is context switching"
	}
	return false, fmt.Sprintf("unknown cpu state %s", c.State)
}

// tick advances the CPU by one tick.
func (c *CPU) tick(ls *levelState) {
	switch c.State {
	case CPURunning:
		p := ls.procs[c.Current]
		if p == nil {
			c.Current = NoProcess
			c.State = CPUIdle
			return
		}
		if !p.IsRunnable() {
			return
		}
		c.TotalTimeRunning++
		switch p.State {
		case ProcessReady:
			p.changeState(ProcessRunning)
		case ProcessRunning:
			p.tickRunning(ls.rng.ForSubsystem(SubsystemIO))
		case ProcessIOWait:
			// Blocked until the input adapter moves it to the IOQueue.
		}
		if p.State == ProcessFinished {
			c.Current = NoProcess
			c.State = CPUIdle
			ls.run.FinishedProcesses++
			ls.run.ProcessesInSystem--
			ls.run.TotalWaitingTime += int64(p.WaitingTime)
			ls.run.TotalTurnaroundTime += p.TurnaroundTime
			delete(ls.procs, p.ID)
			logrus.Debugf("[tick %07d] cpu %d finished process %d (turnaround %d)", ls.now, c.ID, p.ID, p.TurnaroundTime)
			if ls.onEnd != nil {
				ls.onEnd(p, trace.EventFinished)
			}
		}

	case CPUContextSwitch:
		c.Countdown--
		if c.Countdown > 0 {
			return
		}
		c.Countdown = 0
		c.Current = c.Incoming
		c.Incoming = NoProcess
		c.State = CPURunning
		if p := ls.procs[c.Current]; p != nil {
			p.changeState(ProcessRunning)
		}
		logrus.Debugf("[tick %07d] cpu %d switched to process %d", ls.now, c.ID, c.Current)
	}
}

// detach empties the CPU slot holding id and returns the CPU to Idle.
// Returns false if the CPU holds neither a current nor an incoming process with that id.
func (c *CPU) detach(id int64) bool {
	switch {
	case c.Current == id && id != NoProcess:
		c.Current = NoProcess
	case c.Incoming == id && id != NoProcess:
		c.Incoming = NoProcess
		c.Countdown = 0
	default:
		return false
	}
	c.State = CPUIdle
	return true
}

// Reset discards the current and incoming processes and clears all timers.
func (c *CPU) Reset() {
	c.Current = NoProcess
	c.Incoming = NoProcess
	c.Countdown = 0
	c.TotalTimeRunning = 0
	c.State = CPUIdle
}

// IsPendingSwitch reports whether id is the incoming process of a context switch.
func (c *CPU) IsPendingSwitch(id int64) bool {
	return c.State == CPUContextSwitch && c.Incoming == id && id != NoProcess
}
