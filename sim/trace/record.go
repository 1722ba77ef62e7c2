// Package trace provides command and lifecycle recording for post-run analysis
// of a level. This package has no dependencies on sim/. It stores pure data types.
package trace

// Command names recorded for input-adapter actions.
const (
	CommandAssign        = "assign"
	CommandMoveToIO      = "move_to_io"
	CommandReturnToReady = "return_to_ready"
	CommandAddCPU        = "add_cpu"
)

// Lifecycle events recorded for processes.
const (
	EventSpawned  = "spawned"
	EventFinished = "finished"
	EventMissed   = "missed"
)

// CommandRecord captures a single input-adapter command and its outcome.
type CommandRecord struct {
	Tick      int64
	Command   string
	ProcessID int64
	CPUID     int // -1 when the command targets no CPU
	Accepted  bool
	Reason    string // why the command was rejected; empty when accepted
}

// LifecycleRecord captures a process entering or leaving the system.
type LifecycleRecord struct {
	Tick           int64
	ProcessID      int64
	Name           string
	Event          string
	WaitingTime    int64 // meaningful for finished and missed events
	TurnaroundTime int64
}
