// Package autoplay is a headless input adapter: it plays a level by issuing
// the same commands a human would drag and drop, following a scheduling
// strategy. Used by `schedsim run` and by tests.
package autoplay

import (
	"fmt"
	"sort"

	"github.com/procsched/schedsim/sim"
)

// Strategy reorders the ready processes before CPUs are filled.
// Implementations sort the slice in-place using sort.SliceStable for determinism.
type Strategy interface {
	OrderReady(ready []sim.ProcessSnapshot)
	// Preempts reports whether candidate should displace running.
	Preempts(candidate, running sim.ProcessSnapshot) bool
}

// FCFS preserves ready-queue order (no-op) and never preempts.
type FCFS struct{}

func (FCFS) OrderReady(_ []sim.ProcessSnapshot) {
	// No-op: FIFO order preserved from enqueue order
}

func (FCFS) Preempts(_, _ sim.ProcessSnapshot) bool { return false }

// ShortestRemaining sorts by remaining burst (ascending), then by ID.
// It preempts when the candidate needs fewer ticks than the running process
// by more than the context-switch cost.
// Warning: can starve long processes under sustained load.
type ShortestRemaining struct {
	SwitchCost int
}

func (s ShortestRemaining) OrderReady(ready []sim.ProcessSnapshot) {
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].RemainingBurst != ready[j].RemainingBurst {
			return ready[i].RemainingBurst < ready[j].RemainingBurst
		}
		return ready[i].ID < ready[j].ID
	})
}

func (s ShortestRemaining) Preempts(candidate, running sim.ProcessSnapshot) bool {
	return candidate.RemainingBurst+s.SwitchCost < running.RemainingBurst
}

// EarliestDeadline sorts processes carrying a deadline by ticks left
// (ascending) ahead of processes without one; ties break by ID.
// It preempts only processes without a deadline, in favor of one whose
// deadline would otherwise expire.
type EarliestDeadline struct {
	SwitchCost int
}

func (e EarliestDeadline) OrderReady(ready []sim.ProcessSnapshot) {
	sort.SliceStable(ready, func(i, j int) bool {
		di, dj := ready[i].Deadline > 0, ready[j].Deadline > 0
		if di != dj {
			return di
		}
		if di && ready[i].DeadlineTimer != ready[j].DeadlineTimer {
			return ready[i].DeadlineTimer < ready[j].DeadlineTimer
		}
		return ready[i].ID < ready[j].ID
	})
}

func (e EarliestDeadline) Preempts(candidate, running sim.ProcessSnapshot) bool {
	return candidate.Deadline > 0 && running.Deadline == 0 && candidate.DeadlineTimer <= e.SwitchCost+1
}

// validStrategies is the registry of strategy names.
var validStrategies = map[string]bool{
	"": true, "fcfs": true, "shortest-remaining": true, "earliest-deadline": true,
}

// IsValidStrategy returns true if name is a recognized strategy.
func IsValidStrategy(name string) bool {
	return validStrategies[name]
}

// StrategyNames lists the strategy names accepted by NewStrategy.
func StrategyNames() []string {
	return []string{"fcfs", "shortest-remaining", "earliest-deadline"}
}

// NewStrategy creates a Strategy by name.
// Valid names: "fcfs" (default), "shortest-remaining", "earliest-deadline".
// Empty string defaults to FCFS (for CLI flag default compatibility).
// switchCost is the level's context-switch ticks.
// Panics on unrecognized names.
func NewStrategy(name string, switchCost int) Strategy {
	if !IsValidStrategy(name) {
		panic(fmt.Sprintf("unknown strategy %q", name))
	}
	switch name {
	case "", "fcfs":
		return FCFS{}
	case "shortest-remaining":
		return ShortestRemaining{SwitchCost: switchCost}
	case "earliest-deadline":
		return EarliestDeadline{SwitchCost: switchCost}
	default:
		panic(fmt.Sprintf("unhandled strategy %q", name))
	}
}
