package sim

//go:generate mockgen -source=sink.go -destination=mock_sink_test.go -package=sim

// TelemetrySink observes a running level. OnTick receives a snapshot after
// every processed tick; OnLevelOver is called once, right after the tick
// that ended the level. Implementations must not call back into the
// controller.
type TelemetrySink interface {
	OnTick(snap *LevelSnapshot)
	OnLevelOver(summary Summary)
}
