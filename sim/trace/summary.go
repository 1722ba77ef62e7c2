package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalCommands     int
	AcceptedCount     int
	RejectedCount     int
	CommandCounts     map[string]int // command name → count
	RejectionReasons  map[string]int // reason → count
	Spawned           int
	Finished          int
	Missed            int
	MeanTurnaround    float64 // over finished processes
	MaxTurnaround     int64
	MeanFinishWaiting float64 // over finished processes
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		CommandCounts:    make(map[string]int),
		RejectionReasons: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalCommands = len(st.Commands)
	for _, c := range st.Commands {
		summary.CommandCounts[c.Command]++
		if c.Accepted {
			summary.AcceptedCount++
		} else {
			summary.RejectedCount++
			summary.RejectionReasons[c.Reason]++
		}
	}

	var totalTurnaround, totalWaiting int64
	for _, r := range st.Lifecycle {
		switch r.Event {
		case EventSpawned:
			summary.Spawned++
		case EventMissed:
			summary.Missed++
		case EventFinished:
			summary.Finished++
			totalTurnaround += r.TurnaroundTime
			totalWaiting += r.WaitingTime
			if r.TurnaroundTime > summary.MaxTurnaround {
				summary.MaxTurnaround = r.TurnaroundTime
			}
		}
	}
	if summary.Finished > 0 {
		summary.MeanTurnaround = float64(totalTurnaround) / float64(summary.Finished)
		summary.MeanFinishWaiting = float64(totalWaiting) / float64(summary.Finished)
	}

	return summary
}
