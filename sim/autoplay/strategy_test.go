package autoplay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procsched/schedsim/sim"
)

func processIDs(ps []sim.ProcessSnapshot) []int64 {
	ids := make([]int64, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func TestFCFS_PreservesOrder(t *testing.T) {
	// FCFS is a no-op: order unchanged
	ready := []sim.ProcessSnapshot{
		{ID: 3, RemainingBurst: 1},
		{ID: 1, RemainingBurst: 9},
		{ID: 2, RemainingBurst: 5},
	}
	FCFS{}.OrderReady(ready)
	assert.Equal(t, []int64{3, 1, 2}, processIDs(ready))
	assert.False(t, FCFS{}.Preempts(ready[0], ready[1]))
}

func TestShortestRemaining_SortsByRemainingThenID(t *testing.T) {
	ready := []sim.ProcessSnapshot{
		{ID: 4, RemainingBurst: 7},
		{ID: 2, RemainingBurst: 3},
		{ID: 1, RemainingBurst: 7},
		{ID: 3, RemainingBurst: 1},
	}
	ShortestRemaining{}.OrderReady(ready)
	assert.Equal(t, []int64{3, 2, 1, 4}, processIDs(ready))
}

func TestShortestRemaining_PreemptsOnlyWhenWorthTheSwitch(t *testing.T) {
	s := ShortestRemaining{SwitchCost: 3}
	tests := []struct {
		name      string
		candidate int
		running   int
		want      bool
	}{
		{"much shorter", 2, 10, true},
		{"shorter but not by the switch cost", 5, 7, false},
		{"equal", 7, 7, false},
		{"longer", 9, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Preempts(sim.ProcessSnapshot{RemainingBurst: tt.candidate}, sim.ProcessSnapshot{RemainingBurst: tt.running})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEarliestDeadline_DeadlinesFirstByTicksLeft(t *testing.T) {
	ready := []sim.ProcessSnapshot{
		{ID: 1},
		{ID: 2, Deadline: 10, DeadlineTimer: 8},
		{ID: 3, Deadline: 10, DeadlineTimer: 2},
		{ID: 4},
		{ID: 5, Deadline: 5, DeadlineTimer: 2},
	}
	EarliestDeadline{}.OrderReady(ready)
	assert.Equal(t, []int64{3, 5, 2, 1, 4}, processIDs(ready))
}

func TestEarliestDeadline_PreemptsOnlyUndeadlinedWork(t *testing.T) {
	e := EarliestDeadline{SwitchCost: 2}
	urgent := sim.ProcessSnapshot{Deadline: 6, DeadlineTimer: 3}
	relaxed := sim.ProcessSnapshot{Deadline: 6, DeadlineTimer: 5}

	assert.True(t, e.Preempts(urgent, sim.ProcessSnapshot{}))
	assert.False(t, e.Preempts(relaxed, sim.ProcessSnapshot{}))
	assert.False(t, e.Preempts(urgent, sim.ProcessSnapshot{Deadline: 4}))
}

func TestNewStrategy_ValidNames(t *testing.T) {
	assert.IsType(t, FCFS{}, NewStrategy("", 0))
	assert.IsType(t, FCFS{}, NewStrategy("fcfs", 0))
	assert.Equal(t, ShortestRemaining{SwitchCost: 4}, NewStrategy("shortest-remaining", 4))
	assert.Equal(t, EarliestDeadline{SwitchCost: 1}, NewStrategy("earliest-deadline", 1))
}

func TestNewStrategy_UnknownName_Panics(t *testing.T) {
	assert.False(t, IsValidStrategy("round-robin"))
	assert.Panics(t, func() { NewStrategy("round-robin", 0) })
}

func TestStrategyNames_AllValid(t *testing.T) {
	for _, name := range StrategyNames() {
		assert.True(t, IsValidStrategy(name), name)
	}
}
