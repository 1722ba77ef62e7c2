package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsched/schedsim/sim/trace"
)

// The input adapter (drag-and-drop UI, HTTP client, autoplayer) drives
// scheduling through the commands below. Each returns false for an illegal
// request and leaves the level untouched; none of them panic or error.

// Assign hands the Ready process processID to CPU cpuID.
// From an Idle CPU the process starts Running at once; from a Running CPU the
// current process returns to the ReadyQueue and the CPU pays a context switch.
func (l *LevelController) Assign(processID int64, cpuID int) bool {
	ok, reason := l.assign(processID, cpuID)
	l.recordCommand(trace.CommandAssign, processID, cpuID, ok, reason)
	return ok
}

func (l *LevelController) assign(processID int64, cpuID int) (bool, string) {
	if l.run.Phase != PhaseRunning {
		return false, "level is not running"
	}
	p := l.procs[processID]
	if p == nil {
		return false, "unknown process"
	}
	c := l.CPU(cpuID)
	if c == nil {
		return false, "unknown cpu"
	}
	return c.accept(p, l.state(l.run.ElapsedTicks))
}

// MoveToIOQueue detaches an IOWait process from its CPU and appends it to the
// IOQueue. The CPU becomes Idle.
func (l *LevelController) MoveToIOQueue(processID int64) bool {
	ok, reason := l.moveToIOQueue(processID)
	l.recordCommand(trace.CommandMoveToIO, processID, l.cpuHolding(processID), ok, reason)
	return ok
}

func (l *LevelController) moveToIOQueue(processID int64) (bool, string) {
	if l.run.Phase != PhaseRunning {
		return false, "level is not running"
	}
	p := l.procs[processID]
	if p == nil {
		return false, "unknown process"
	}
	if p.State != ProcessIOWait {
		return false, fmt.Sprintf("process state is %s", p.State)
	}
	c := l.CPU(l.cpuHolding(processID))
	if c == nil || c.Current != processID {
		return false, "process is not running on a cpu"
	}
	c.detach(processID)
	l.io.enqueue(processID, l.rng.ForSubsystem(SubsystemIODispatch))
	return true, ""
}

// ReturnToReadyQueue takes a Running process (or the incoming process of a
// context switch) off its CPU and re-enqueues it as Ready. The CPU becomes Idle.
func (l *LevelController) ReturnToReadyQueue(processID int64) bool {
	ok, reason := l.returnToReadyQueue(processID)
	l.recordCommand(trace.CommandReturnToReady, processID, l.cpuHolding(processID), ok, reason)
	return ok
}

func (l *LevelController) returnToReadyQueue(processID int64) (bool, string) {
	if l.run.Phase != PhaseRunning {
		return false, "level is not running"
	}
	p := l.procs[processID]
	if p == nil {
		return false, "unknown process"
	}
	c := l.CPU(l.cpuHolding(processID))
	if c == nil {
		return false, "process is not on a cpu"
	}
	if p.State != ProcessRunning && p.State != ProcessReady {
		return false, fmt.Sprintf("process state is %s", p.State)
	}
	c.detach(processID)
	p.changeState(ProcessReady)
	l.ready.Enqueue(processID)
	return true, ""
}

// AddCPU activates one more CPU up to the level's maximum.
func (l *LevelController) AddCPU() bool {
	ok, reason := l.addCPU()
	l.recordCommand(trace.CommandAddCPU, NoProcess, len(l.cpus)-1, ok, reason)
	return ok
}

func (l *LevelController) addCPU() (bool, string) {
	if l.run.Phase != PhaseRunning {
		return false, "level is not running"
	}
	if len(l.cpus) >= l.config.maxCPUs() {
		return false, fmt.Sprintf("cpu limit %d reached", l.config.maxCPUs())
	}
	l.cpus = append(l.cpus, NewCPU(len(l.cpus), l.config.ContextSwitchTicks))
	return true, ""
}

// cpuHolding returns the id of the CPU whose current or incoming slot holds
// processID, or -1.
func (l *LevelController) cpuHolding(processID int64) int {
	for _, c := range l.cpus {
		if processID != NoProcess && (c.Current == processID || c.Incoming == processID) {
			return c.ID
		}
	}
	return -1
}

func (l *LevelController) recordCommand(kind string, processID int64, cpuID int, accepted bool, reason string) {
	if !accepted {
		logrus.Debugf("[tick %07d] rejected %s(process=%d, cpu=%d): %s", l.run.ElapsedTicks, kind, processID, cpuID, reason)
	}
	if l.trace == nil {
		return
	}
	l.trace.RecordCommand(trace.CommandRecord{
		Tick:      l.run.ElapsedTicks,
		Command:   kind,
		ProcessID: processID,
		CPUID:     cpuID,
		Accepted:  accepted,
		Reason:    reason,
	})
}
