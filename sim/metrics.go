// Tracks level-wide statistics reported when a level ends:
// throughput, CPU utilization and the average waiting and turnaround times.

package sim

import (
	"fmt"
	"io"
)

// Summary aggregates statistics about one level run
// for final reporting.
type Summary struct {
	Level        string `json:"level"`
	Seed         int64  `json:"seed"`
	ElapsedTicks int64  `json:"elapsed_ticks"`

	FinishedProcesses int `json:"finished_processes"`
	MissedProcesses   int `json:"missed_processes"`
	MaxMissable       int `json:"max_missable"`
	ProcessesSpawned  int `json:"processes_spawned"`

	CPUs           int     `json:"cpus"`
	CPUUtilization float64 `json:"cpu_utilization"` // busy ticks / (CPUs * elapsed ticks)
	Throughput     float64 `json:"throughput"`      // finished processes per tick

	TotalWaitingTime    int64   `json:"total_waiting_time"`
	TotalTurnaroundTime int64   `json:"total_turnaround_time"`
	AvgWaitingTime      float64 `json:"avg_waiting_time"`
	AvgTurnaroundTime   float64 `json:"avg_turnaround_time"`

	LevelOver bool `json:"level_over"`
	Success   bool `json:"success"`
}

// Summary returns the level statistics. Once the level is over the summary
// frozen at endLevel is returned; before that it is computed live.
func (l *LevelController) Summary() Summary {
	if l.summary != nil {
		return *l.summary
	}
	return l.computeSummary()
}

func (l *LevelController) computeSummary() Summary {
	s := Summary{
		Seed:                l.seed,
		ElapsedTicks:        l.run.ElapsedTicks,
		FinishedProcesses:   l.run.FinishedProcesses,
		MissedProcesses:     l.run.MissedProcesses,
		ProcessesSpawned:    int(l.nextID),
		CPUs:                len(l.cpus),
		TotalWaitingTime:    l.run.TotalWaitingTime,
		TotalTurnaroundTime: l.run.TotalTurnaroundTime,
		LevelOver:           l.run.LevelOver,
		Success:             l.run.Success,
	}
	if l.config != nil {
		s.Level = l.config.Name
		s.MaxMissable = l.config.MaxMissableProcesses
	}

	var busy int64
	for _, c := range l.cpus {
		busy += c.TotalTimeRunning
	}
	if l.run.ElapsedTicks > 0 {
		if len(l.cpus) > 0 {
			s.CPUUtilization = float64(busy) / float64(int64(len(l.cpus))*l.run.ElapsedTicks)
		}
		s.Throughput = float64(l.run.FinishedProcesses) / float64(l.run.ElapsedTicks)
	}
	if l.run.FinishedProcesses > 0 {
		s.AvgWaitingTime = float64(l.run.TotalWaitingTime) / float64(l.run.FinishedProcesses)
		s.AvgTurnaroundTime = float64(l.run.TotalTurnaroundTime) / float64(l.run.FinishedProcesses)
	}
	return s
}

// Print writes the game-over report.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Level Summary ===")
	fmt.Fprintf(w, "Level                : %s\n", s.Level)
	fmt.Fprintf(w, "Elapsed Ticks        : %d\n", s.ElapsedTicks)
	fmt.Fprintf(w, "Processes Spawned    : %d\n", s.ProcessesSpawned)
	fmt.Fprintf(w, "Finished Processes   : %d\n", s.FinishedProcesses)
	fmt.Fprintf(w, "Missed Processes     : %d / %d\n", s.MissedProcesses, s.MaxMissable)
	fmt.Fprintf(w, "CPUs                 : %d\n", s.CPUs)
	fmt.Fprintf(w, "CPU Utilization      : %.1f%%\n", s.CPUUtilization*100)
	fmt.Fprintf(w, "Throughput           : %.4f processes/tick\n", s.Throughput)
	if s.FinishedProcesses > 0 {
		fmt.Fprintf(w, "Average Waiting      : %.2f ticks\n", s.AvgWaitingTime)
		fmt.Fprintf(w, "Average Turnaround   : %.2f ticks\n", s.AvgTurnaroundTime)
	}
	switch {
	case !s.LevelOver:
		fmt.Fprintln(w, "Result               : in progress")
	case s.Success:
		fmt.Fprintln(w, "Result               : SUCCESS")
	default:
		fmt.Fprintln(w, "Result               : FAILED")
	}
}
