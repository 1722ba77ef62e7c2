package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestTelemetrySink_NotifiedEveryTickAndOnceAtEnd(t *testing.T) {
	// GIVEN a 3 tick level observed by a sink
	ctrl := gomock.NewController(t)
	sink := NewMockTelemetrySink(ctrl)
	cfg := simpleConfig(5, 100)
	cfg.TimeLimit = 3

	var ticks []int64
	sink.EXPECT().OnTick(gomock.Any()).Times(3).Do(func(snap *LevelSnapshot) {
		ticks = append(ticks, snap.Tick)
	})
	sink.EXPECT().OnLevelOver(gomock.Any()).Times(1).Do(func(s Summary) {
		assert.True(t, s.LevelOver)
		assert.Equal(t, int64(3), s.ElapsedTicks)
	})

	l := startLevel(t, cfg, WithTelemetrySink(sink))

	// WHEN the level runs out
	for l.Step() {
	}

	// THEN the sink saw each tick in order and a single game-over call
	assert.Equal(t, []int64{1, 2, 3}, ticks)
}

func TestTelemetrySink_LastSnapshotIsOver(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockTelemetrySink(ctrl)
	cfg := simpleConfig(5, 100)
	cfg.TimeLimit = 1

	var last *LevelSnapshot
	gomock.InOrder(
		sink.EXPECT().OnTick(gomock.Any()).Do(func(snap *LevelSnapshot) { last = snap }),
		sink.EXPECT().OnLevelOver(gomock.Any()),
	)

	l := startLevel(t, cfg, WithTelemetrySink(sink))
	l.Step()

	assert.Equal(t, PhaseOver, last.Phase)
	assert.True(t, last.Success)
}
