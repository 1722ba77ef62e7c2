package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_AfterRun(t *testing.T) {
	// GIVEN a 10 tick level where one 3 tick process runs to completion
	cfg := simpleConfig(3, 100)
	cfg.TimeLimit = 10
	l := startLevel(t, cfg)
	l.Step()
	require.True(t, l.Assign(1, 0))
	for l.Step() {
	}

	// WHEN the summary is taken
	s := l.Summary()

	// THEN rates are derived from the frozen counters
	assert.Equal(t, "test", s.Level)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, int64(10), s.ElapsedTicks)
	assert.Equal(t, 1, s.FinishedProcesses)
	assert.Equal(t, 1, s.ProcessesSpawned)
	assert.Equal(t, 1, s.CPUs)
	assert.InDelta(t, 0.3, s.CPUUtilization, 1e-9)
	assert.InDelta(t, 0.1, s.Throughput, 1e-9)
	assert.InDelta(t, 3.0, s.AvgTurnaroundTime, 1e-9)
	assert.Equal(t, 0.0, s.AvgWaitingTime)
	assert.True(t, s.LevelOver)
	assert.True(t, s.Success)
}

func TestSummary_FrozenOnceOver(t *testing.T) {
	cfg := simpleConfig(3, 100)
	cfg.TimeLimit = 2
	l := startLevel(t, cfg)
	for l.Step() {
	}
	first := l.Summary()

	l.Advance(100)

	assert.Equal(t, first, l.Summary())
}

func TestSummary_LiveBeforeOver(t *testing.T) {
	l := startLevel(t, simpleConfig(3, 100))
	l.Step()
	l.Step()

	s := l.Summary()

	assert.False(t, s.LevelOver)
	assert.Equal(t, int64(2), s.ElapsedTicks)
	assert.Equal(t, 0.0, s.AvgTurnaroundTime, "no finished processes yet")
}

func TestSummary_Print(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
		absent  string
	}{
		{"success", Summary{LevelOver: true, Success: true, FinishedProcesses: 2, AvgWaitingTime: 1.5}, "Result               : SUCCESS", ""},
		{"failure", Summary{LevelOver: true}, "Result               : FAILED", "Average Waiting"},
		{"running", Summary{}, "Result               : in progress", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.summary.Print(&buf)
			out := buf.String()
			assert.Contains(t, out, "=== Level Summary ===")
			assert.Contains(t, out, tt.want)
			if tt.absent != "" {
				assert.NotContains(t, out, tt.absent)
			}
		})
	}
}
