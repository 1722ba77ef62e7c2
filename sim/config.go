package sim

import (
	"errors"
	"fmt"
	"math/rand"
)

// Defaults applied by DefaultLevelConfig and by the level loader when a
// field is omitted. Zero values passed explicitly are kept as-is.
const (
	DefaultContextSwitchTicks   = 5
	DefaultInitialSpawnDelay    = 1
	DefaultSpawnInterval        = 5
	DefaultMaxProcessesInSystem = 5
	DefaultMaxMissableProcesses = 5
	DefaultTimeLimit            = 180
	DefaultMaxMultiplier        = 4.0
)

// ErrMissingConfig is returned when a level is started without a LevelConfig.
var ErrMissingConfig = errors.New("level config is missing")

// Range is an inclusive integer range. Max < Min is treated as the fixed value Min.
type Range struct {
	Min int
	Max int
}

// Fixed returns a Range that always draws v.
func Fixed(v int) Range {
	return Range{Min: v, Max: v}
}

// Draw returns a uniformly distributed value in [Min, Max].
// A degenerate range does not consume rng.
func (r Range) Draw(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// DeadlineSpec gives a template an optional ready-queue deadline.
type DeadlineSpec struct {
	Ticks       int     // deadline length; 0 disables it
	Probability float64 // chance a spawned process carries the deadline; >= 1 means always
}

// ProcessTemplate is static data describing a family of processes.
type ProcessTemplate struct {
	Name                 string
	BurstTime            Range
	IORequestProbability float64
	IOCheckInterval      Range
	IODuration           Range
	Deadline             *DeadlineSpec
}

// LevelConfig groups every parameter of a level. It is plain data supplied
// by a loader before ResetLevel is first called.
type LevelConfig struct {
	Name        string
	Description string

	TimeLimit            int // ticks; 0 = unlimited
	InitialCPUs          int
	MaxCPUs              int // upper bound for AddCPU; values below InitialCPUs mean InitialCPUs
	MaxMissableProcesses int
	MaxProcessesInSystem int // 0 = unlimited

	SpawnInterval      Range // ticks between spawn attempts
	InitialSpawnDelay  int   // ticks before the first spawn attempt after a reset
	ContextSwitchTicks int   // cost paid when a Running CPU is preempted
	IODispatchDelay    Range // ticks the IOQueue head waits before its IO service starts
	MaxMultiplier      float64

	StopConditions []Condition
	WinConditions  []Condition
	Templates      []ProcessTemplate
}

// DefaultLevelConfig returns the baseline level: two CPUs, a 180 tick time
// limit and a single generic process template.
func DefaultLevelConfig() *LevelConfig {
	return &LevelConfig{
		Name:                 "default",
		TimeLimit:            DefaultTimeLimit,
		InitialCPUs:          2,
		MaxCPUs:              4,
		MaxMissableProcesses: DefaultMaxMissableProcesses,
		MaxProcessesInSystem: DefaultMaxProcessesInSystem,
		SpawnInterval:        Fixed(DefaultSpawnInterval),
		InitialSpawnDelay:    DefaultInitialSpawnDelay,
		ContextSwitchTicks:   DefaultContextSwitchTicks,
		MaxMultiplier:        DefaultMaxMultiplier,
		WinConditions: []Condition{
			{Attribute: MetricMissedProcesses, Operator: OpLessThan, Threshold: DefaultMaxMissableProcesses},
		},
		Templates: []ProcessTemplate{{
			Name:                 "process",
			BurstTime:            Range{Min: 5, Max: 15},
			IORequestProbability: 0.2,
			IOCheckInterval:      Fixed(2),
			IODuration:           Range{Min: 3, Max: 6},
			Deadline:             &DeadlineSpec{Ticks: 10, Probability: 0.5},
		}},
	}
}

// Validate checks the invariants the engine relies on.
func (c *LevelConfig) Validate() error {
	if c.TimeLimit < 0 {
		return fmt.Errorf("time limit must be non-negative, got %d", c.TimeLimit)
	}
	if c.InitialCPUs < 1 {
		return fmt.Errorf("initial CPU count must be at least 1, got %d", c.InitialCPUs)
	}
	if c.MaxProcessesInSystem < 0 {
		return fmt.Errorf("max processes in system must be non-negative, got %d", c.MaxProcessesInSystem)
	}
	if c.ContextSwitchTicks < 0 {
		return fmt.Errorf("context switch ticks must be non-negative, got %d", c.ContextSwitchTicks)
	}
	if c.MaxMultiplier < 0 {
		return fmt.Errorf("max multiplier must be non-negative, got %f", c.MaxMultiplier)
	}
	if err := validateRange("spawn interval", c.SpawnInterval); err != nil {
		return err
	}
	if err := validateRange("io dispatch delay", c.IODispatchDelay); err != nil {
		return err
	}
	for _, cond := range append(append([]Condition{}, c.StopConditions...), c.WinConditions...) {
		if !cond.Operator.IsValid() {
			return fmt.Errorf("condition on %q: unknown operator %q", cond.Attribute, cond.Operator)
		}
	}
	for i, tpl := range c.Templates {
		prefix := fmt.Sprintf("template[%d] %q", i, tpl.Name)
		if tpl.BurstTime.Min < 1 {
			return fmt.Errorf("%s: burst time must be at least 1, got %d", prefix, tpl.BurstTime.Min)
		}
		if tpl.IORequestProbability < 0 || tpl.IORequestProbability > 1 {
			return fmt.Errorf("%s: io request probability must be in [0, 1], got %f", prefix, tpl.IORequestProbability)
		}
		for name, r := range map[string]Range{"burst time": tpl.BurstTime, "io check interval": tpl.IOCheckInterval, "io duration": tpl.IODuration} {
			if err := validateRange(prefix+": "+name, r); err != nil {
				return err
			}
		}
		if d := tpl.Deadline; d != nil && (d.Ticks < 0 || d.Probability < 0) {
			return fmt.Errorf("%s: deadline ticks and probability must be non-negative", prefix)
		}
	}
	return nil
}

func validateRange(name string, r Range) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%s must be non-negative, got [%d, %d]", name, r.Min, r.Max)
	}
	return nil
}

// maxCPUs returns the effective AddCPU ceiling.
func (c *LevelConfig) maxCPUs() int {
	return max(c.MaxCPUs, c.InitialCPUs)
}

// EffectiveStopConditions returns the configured stop conditions, or when
// none are configured, conditions derived from the time limit and the
// missable-process budget.
func (c *LevelConfig) EffectiveStopConditions() []Condition {
	if len(c.StopConditions) > 0 {
		return c.StopConditions
	}
	var conds []Condition
	if c.TimeLimit > 0 {
		conds = append(conds, Condition{Attribute: MetricRemainingTime, Operator: OpLessThanEqual, Threshold: 0})
	}
	if c.MaxMissableProcesses > 0 {
		conds = append(conds, Condition{Attribute: MetricMissedProcesses, Operator: OpGreaterThanEqual, Threshold: c.MaxMissableProcesses})
	}
	return conds
}
