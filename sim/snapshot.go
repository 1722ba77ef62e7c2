package sim

// Process locations reported in a snapshot.
const (
	LocationReady = "ready"
	LocationIO    = "io"
	LocationCPU   = "cpu"
)

// ProcessSnapshot is the read-only view of one process handed to adapters.
type ProcessSnapshot struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	State           ProcessState `json:"state"`
	Location        string       `json:"location"`
	CPU             int          `json:"cpu"` // -1 unless Location is "cpu"
	IsPendingSwitch bool         `json:"is_pending_switch"`
	BurstTime       int          `json:"burst_time"`
	RemainingBurst  int          `json:"remaining_burst"`
	RemainingIO     int          `json:"remaining_io"`
	Deadline        int          `json:"deadline"`
	DeadlineTimer   int          `json:"deadline_timer"`
	WaitingTime     int          `json:"waiting_time"`
	TurnaroundTime  int64        `json:"turnaround_time"`
}

// CPUSnapshot is the read-only view of one CPU.
type CPUSnapshot struct {
	ID               int      `json:"id"`
	State            CPUState `json:"state"`
	Current          int64    `json:"current"`
	Incoming         int64    `json:"incoming"`
	Countdown        int      `json:"countdown"`
	TotalTimeRunning int64    `json:"total_time_running"`
}

// LevelSnapshot is the complete observable state after a tick.
// Processes are listed ready queue first, then IO queue, then CPU slots,
// each in order.
type LevelSnapshot struct {
	Level           string            `json:"level"`
	Tick            int64             `json:"tick"`
	Phase           LevelPhase        `json:"phase"`
	RemainingTime   int               `json:"remaining_time"`
	Multiplier      float64           `json:"multiplier"`
	Paused          bool              `json:"paused"`
	Finished        int               `json:"finished"`
	Missed          int               `json:"missed"`
	InSystem        int               `json:"in_system"`
	Success         bool              `json:"success"`
	ReadyQueue      []int64           `json:"ready_queue"`
	IOQueue         []int64           `json:"io_queue"`
	IODispatchTimer int               `json:"io_dispatch_timer"`
	CPUs            []CPUSnapshot     `json:"cpus"`
	Processes       []ProcessSnapshot `json:"processes"`
}

func snapshotProcess(p *Process, location string, cpu int, pending bool) ProcessSnapshot {
	return ProcessSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		State:           p.State,
		Location:        location,
		CPU:             cpu,
		IsPendingSwitch: pending,
		BurstTime:       p.BurstTime,
		RemainingBurst:  p.RemainingBurst,
		RemainingIO:     p.RemainingIO,
		Deadline:        p.Deadline,
		DeadlineTimer:   p.DeadlineTimer,
		WaitingTime:     p.WaitingTime,
		TurnaroundTime:  p.TurnaroundTime,
	}
}

// Snapshot copies the observable level state.
func (l *LevelController) Snapshot() *LevelSnapshot {
	snap := &LevelSnapshot{
		Tick:          l.run.ElapsedTicks,
		Phase:         l.run.Phase,
		RemainingTime: l.run.RemainingTime,
		Paused:        l.run.Paused,
		Finished:      l.run.FinishedProcesses,
		Missed:        l.run.MissedProcesses,
		InSystem:      l.run.ProcessesInSystem,
		Success:       l.run.Success,
		ReadyQueue:    l.ready.Items(),
		CPUs:          make([]CPUSnapshot, 0, len(l.cpus)),
		Processes:     make([]ProcessSnapshot, 0, len(l.procs)),
	}
	if l.config != nil {
		snap.Level = l.config.Name
	}
	if l.clock != nil {
		snap.Multiplier = l.clock.Multiplier()
	}

	for _, id := range snap.ReadyQueue {
		if p := l.procs[id]; p != nil {
			snap.Processes = append(snap.Processes, snapshotProcess(p, LocationReady, -1, false))
		}
	}
	if l.io != nil {
		snap.IOQueue = l.io.Items()
		snap.IODispatchTimer = l.io.DispatchTimer()
		for _, id := range snap.IOQueue {
			if p := l.procs[id]; p != nil {
				snap.Processes = append(snap.Processes, snapshotProcess(p, LocationIO, -1, false))
			}
		}
	}
	for _, c := range l.cpus {
		snap.CPUs = append(snap.CPUs, CPUSnapshot{
			ID:               c.ID,
			State:            c.State,
			Current:          c.Current,
			Incoming:         c.Incoming,
			Countdown:        c.Countdown,
			TotalTimeRunning: c.TotalTimeRunning,
		})
		if p := l.procs[c.Current]; p != nil {
			snap.Processes = append(snap.Processes, snapshotProcess(p, LocationCPU, c.ID, false))
		}
		if p := l.procs[c.Incoming]; p != nil {
			snap.Processes = append(snap.Processes, snapshotProcess(p, LocationCPU, c.ID, true))
		}
	}
	return snap
}
