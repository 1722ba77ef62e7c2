// Package levels loads level definitions from YAML and ships the built-in
// level presets. A LevelSpec is converted into a sim.LevelConfig before a
// level is started.
package levels

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/procsched/schedsim/sim"
)

// LevelSpec is the on-disk level configuration.
// Loaded from YAML via LoadLevelSpec(path).
//
// Pointer fields distinguish "omitted" (default applied) from an explicit zero.
type LevelSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	TimeLimit            *int       `yaml:"time_limit,omitempty"` // ticks; 0 = unlimited
	InitialCPUs          int        `yaml:"initial_cpus"`
	MaxCPUs              int        `yaml:"max_cpus,omitempty"`
	MaxMissableProcesses *int       `yaml:"max_missable_processes,omitempty"`
	MaxProcessesInSystem *int       `yaml:"max_processes_in_system,omitempty"` // 0 = unlimited
	SpawnInterval        *RangeSpec `yaml:"spawn_interval,omitempty"`
	InitialSpawnDelay    *int       `yaml:"initial_spawn_delay,omitempty"`
	ContextSwitchTicks   *int       `yaml:"context_switch_ticks,omitempty"`
	IODispatchDelay      RangeSpec  `yaml:"io_dispatch_delay,omitempty"`
	MaxMultiplier        float64    `yaml:"max_multiplier,omitempty"`

	StopConditions []ConditionSpec `yaml:"stop_conditions,omitempty"`
	WinConditions  []ConditionSpec `yaml:"win_conditions,omitempty"`
	Processes      []TemplateSpec  `yaml:"processes"`
}

// TemplateSpec describes one family of spawned processes.
type TemplateSpec struct {
	Name                 string        `yaml:"name"`
	BurstTime            RangeSpec     `yaml:"burst_time"`
	IORequestProbability float64       `yaml:"io_request_probability,omitempty"`
	IOCheckInterval      *RangeSpec    `yaml:"io_check_interval,omitempty"`
	IODuration           RangeSpec     `yaml:"io_duration,omitempty"`
	Deadline             *DeadlineSpec `yaml:"deadline,omitempty"`
}

// DeadlineSpec configures a template's ready-queue deadline.
type DeadlineSpec struct {
	Ticks       int      `yaml:"ticks"`
	Probability *float64 `yaml:"probability,omitempty"` // omitted = always
}

// ConditionSpec is one stop or win condition, e.g.
// {attribute: numMissedProcesses, operator: "<", threshold: 5}.
type ConditionSpec struct {
	Attribute string `yaml:"attribute"`
	Operator  string `yaml:"operator"`
	Threshold int    `yaml:"threshold"`
}

// RangeSpec is an inclusive integer range. In YAML it is either a scalar
// (fixed value) or a mapping {min: a, max: b}.
type RangeSpec struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (r *RangeSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v int
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: range must be an integer or {min, max}: %w", node.Line, err)
		}
		r.Min, r.Max = v, v
		return nil
	}
	type plain RangeSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RangeSpec(p)
	return nil
}

func (r RangeSpec) toRange() sim.Range {
	return sim.Range{Min: r.Min, Max: r.Max}
}

// validMetrics lists the metrics the engine reports. Conditions naming any
// other attribute still load; the attribute reads as 0.
var validMetrics = map[string]bool{
	sim.MetricRemainingTime:       true,
	sim.MetricMissedProcesses:     true,
	sim.MetricFinishedProcesses:   true,
	sim.MetricProcessesInSystem:   true,
	sim.MetricTimeElapsed:         true,
	sim.MetricNumCPUs:             true,
	sim.MetricTotalWaitingTime:    true,
	sim.MetricTotalTurnaroundTime: true,
}

// IsValidMetric returns true if name is a metric conditions can reference.
func IsValidMetric(name string) bool {
	return validMetrics[name]
}

// LoadLevelSpec reads and parses a YAML level file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadLevelSpec(path string) (*LevelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level spec: %w", err)
	}
	return ParseLevelSpec(data)
}

// ParseLevelSpec parses YAML level data with strict field checking.
func ParseLevelSpec(data []byte) (*LevelSpec, error) {
	var spec LevelSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing level spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *LevelSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("level name is required")
	}
	if s.InitialCPUs < 1 {
		return fmt.Errorf("initial_cpus must be at least 1, got %d", s.InitialCPUs)
	}
	if s.TimeLimit != nil && *s.TimeLimit < 0 {
		return fmt.Errorf("time_limit must be non-negative, got %d", *s.TimeLimit)
	}
	if s.MaxMultiplier < 0 {
		return fmt.Errorf("max_multiplier must be non-negative, got %f", s.MaxMultiplier)
	}
	if len(s.Processes) == 0 {
		return fmt.Errorf("at least one process template required")
	}
	for i, c := range s.StopConditions {
		if err := validateCondition(c, fmt.Sprintf("stop_conditions[%d]", i)); err != nil {
			return err
		}
	}
	for i, c := range s.WinConditions {
		if err := validateCondition(c, fmt.Sprintf("win_conditions[%d]", i)); err != nil {
			return err
		}
	}
	for i, t := range s.Processes {
		if err := validateTemplate(t, i); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(c ConditionSpec, prefix string) error {
	if c.Attribute == "" {
		return fmt.Errorf("%s: attribute is required", prefix)
	}
	if !validMetrics[c.Attribute] {
		logrus.Warnf("%s: unknown attribute %q reads as 0", prefix, c.Attribute)
	}
	if _, err := sim.ParseOperator(c.Operator); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return nil
}

func validateTemplate(t TemplateSpec, idx int) error {
	prefix := fmt.Sprintf("processes[%d]", idx)
	if t.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	if t.BurstTime.Min < 1 {
		return fmt.Errorf("%s: burst_time must be at least 1, got %d", prefix, t.BurstTime.Min)
	}
	if t.BurstTime.Max != 0 && t.BurstTime.Max < t.BurstTime.Min {
		return fmt.Errorf("%s: burst_time max %d below min %d", prefix, t.BurstTime.Max, t.BurstTime.Min)
	}
	if t.IORequestProbability < 0 || t.IORequestProbability > 1 {
		return fmt.Errorf("%s: io_request_probability must be in [0, 1], got %f", prefix, t.IORequestProbability)
	}
	if t.IORequestProbability > 0 && t.IODuration.Min < 1 {
		return fmt.Errorf("%s: io_duration must be at least 1 when io_request_probability > 0", prefix)
	}
	if d := t.Deadline; d != nil {
		if d.Ticks < 1 {
			return fmt.Errorf("%s: deadline ticks must be at least 1, got %d", prefix, d.Ticks)
		}
		if d.Probability != nil && (*d.Probability < 0 || *d.Probability > 1) {
			return fmt.Errorf("%s: deadline probability must be in [0, 1], got %f", prefix, *d.Probability)
		}
	}
	return nil
}

// ToConfig converts a validated spec into a LevelConfig, applying defaults
// for omitted fields.
func (s *LevelSpec) ToConfig() (*sim.LevelConfig, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg := &sim.LevelConfig{
		Name:                 s.Name,
		Description:          s.Description,
		TimeLimit:            intOr(s.TimeLimit, sim.DefaultTimeLimit),
		InitialCPUs:          s.InitialCPUs,
		MaxCPUs:              s.MaxCPUs,
		MaxMissableProcesses: intOr(s.MaxMissableProcesses, sim.DefaultMaxMissableProcesses),
		MaxProcessesInSystem: intOr(s.MaxProcessesInSystem, sim.DefaultMaxProcessesInSystem),
		SpawnInterval:        sim.Fixed(sim.DefaultSpawnInterval),
		InitialSpawnDelay:    intOr(s.InitialSpawnDelay, sim.DefaultInitialSpawnDelay),
		ContextSwitchTicks:   intOr(s.ContextSwitchTicks, sim.DefaultContextSwitchTicks),
		IODispatchDelay:      s.IODispatchDelay.toRange(),
		MaxMultiplier:        s.MaxMultiplier,
	}
	if s.SpawnInterval != nil {
		cfg.SpawnInterval = s.SpawnInterval.toRange()
	}
	if cfg.MaxMultiplier == 0 {
		cfg.MaxMultiplier = sim.DefaultMaxMultiplier
	}
	if s.MaxCPUs != 0 && s.MaxCPUs < s.InitialCPUs {
		logrus.Warnf("level %q: max_cpus %d below initial_cpus %d; AddCPU disabled", s.Name, s.MaxCPUs, s.InitialCPUs)
	}

	var err error
	if cfg.StopConditions, err = toConditions(s.StopConditions); err != nil {
		return nil, err
	}
	if cfg.WinConditions, err = toConditions(s.WinConditions); err != nil {
		return nil, err
	}
	if len(s.WinConditions) == 0 && cfg.MaxMissableProcesses > 0 {
		cfg.WinConditions = []sim.Condition{{
			Attribute: sim.MetricMissedProcesses,
			Operator:  sim.OpLessThan,
			Threshold: cfg.MaxMissableProcesses,
		}}
	}

	for _, t := range s.Processes {
		tpl := sim.ProcessTemplate{
			Name:                 t.Name,
			BurstTime:            t.BurstTime.toRange(),
			IORequestProbability: t.IORequestProbability,
			IOCheckInterval:      sim.Fixed(1),
			IODuration:           t.IODuration.toRange(),
		}
		if t.IOCheckInterval != nil {
			tpl.IOCheckInterval = t.IOCheckInterval.toRange()
		}
		if d := t.Deadline; d != nil {
			prob := 1.0
			if d.Probability != nil {
				prob = *d.Probability
			}
			tpl.Deadline = &sim.DeadlineSpec{Ticks: d.Ticks, Probability: prob}
		}
		cfg.Templates = append(cfg.Templates, tpl)
	}
	return cfg, nil
}

func toConditions(specs []ConditionSpec) ([]sim.Condition, error) {
	var out []sim.Condition
	for _, c := range specs {
		op, err := sim.ParseOperator(c.Operator)
		if err != nil {
			return nil, err
		}
		out = append(out, sim.Condition{Attribute: c.Attribute, Operator: op, Threshold: c.Threshold})
	}
	return out, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
