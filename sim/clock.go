package sim

// DefaultTickDuration is the amount of scaled time, in seconds, one tick represents.
const DefaultTickDuration = 1.0

// Clock converts real elapsed time scaled by a speed multiplier into
// discrete ticks. It emits at most one tick per Advance call and carries any
// surplus in an accumulator.
//
// Progress can be frozen two independent ways: Pause, and a multiplier of 0.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Clock struct {
	multiplier    float64
	maxMultiplier float64
	tickDuration  float64

	accumulator float64
	tick        int64
	started     bool
	paused      bool
}

// NewClock creates a stopped clock with multiplier 1.
// A non-positive tickDuration falls back to DefaultTickDuration.
func NewClock(maxMultiplier, tickDuration float64) *Clock {
	if tickDuration <= 0 {
		tickDuration = DefaultTickDuration
	}
	return &Clock{
		multiplier:    min(1, maxMultiplier),
		maxMultiplier: maxMultiplier,
		tickDuration:  tickDuration,
	}
}

// Start begins emitting ticks.
func (c *Clock) Start() {
	c.started = true
	c.paused = false
}

// Pause suppresses tick emission; the accumulator keeps its value.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume re-enables tick emission after Pause.
func (c *Clock) Resume() {
	c.paused = false
}

// Reset stops the clock and clears the tick counter and accumulator.
// The multiplier is preserved.
func (c *Clock) Reset() {
	c.accumulator = 0
	c.tick = 0
	c.started = false
	c.paused = false
}

// SetMultiplier sets the speed multiplier clamped to [0, maxMultiplier] and
// returns the value applied.
func (c *Clock) SetMultiplier(m float64) float64 {
	c.multiplier = max(0, min(m, c.maxMultiplier))
	return c.multiplier
}

// Multiplier returns the current speed multiplier.
func (c *Clock) Multiplier() float64 { return c.multiplier }

// MaxMultiplier returns the multiplier ceiling.
func (c *Clock) MaxMultiplier() float64 { return c.maxMultiplier }

// Paused reports whether Pause is in effect.
func (c *Clock) Paused() bool { return c.paused }

// Started reports whether Start was called since the last Reset.
func (c *Clock) Started() bool { return c.started }

// Tick returns the index of the last emitted tick (0 before the first).
func (c *Clock) Tick() int64 { return c.tick }

// Advance feeds realDeltaSeconds of host time into the clock and returns the
// indices of the ticks it emits (zero or one).
func (c *Clock) Advance(realDeltaSeconds float64) []int64 {
	if !c.started || c.paused {
		return nil
	}
	if realDeltaSeconds > 0 {
		c.accumulator += realDeltaSeconds * c.multiplier
	}
	if c.accumulator < c.tickDuration {
		return nil
	}
	c.accumulator -= c.tickDuration
	c.tick++
	return []int64{c.tick}
}
