package levels

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in level presets, ordered from easiest to hardest.
// Each returns a valid LevelSpec ready for ToConfig.

func ptr[T any](v T) *T { return &v }

// PresetTutorial is a single CPU level with short CPU-bound processes and no deadlines.
func PresetTutorial() *LevelSpec {
	return &LevelSpec{
		Name: "tutorial", Description: "One CPU, short CPU-bound jobs, no deadlines.",
		TimeLimit: ptr(120), InitialCPUs: 1, MaxCPUs: 1,
		MaxMissableProcesses: ptr(3), MaxProcessesInSystem: ptr(4),
		SpawnInterval: &RangeSpec{Min: 6, Max: 8}, ContextSwitchTicks: ptr(2),
		Processes: []TemplateSpec{
			{Name: "short", BurstTime: RangeSpec{Min: 3, Max: 6}},
		},
	}
}

// PresetClassic is the baseline two-CPU level with occasional IO and deadlines.
func PresetClassic() *LevelSpec {
	return &LevelSpec{
		Name: "classic", Description: "Two CPUs, mixed jobs, half of them with deadlines.",
		InitialCPUs: 2, MaxCPUs: 4,
		Processes: []TemplateSpec{
			{Name: "process", BurstTime: RangeSpec{Min: 5, Max: 15},
				IORequestProbability: 0.2, IOCheckInterval: &RangeSpec{Min: 2, Max: 2},
				IODuration: RangeSpec{Min: 3, Max: 6},
				Deadline:   &DeadlineSpec{Ticks: 10, Probability: ptr(0.5)}},
		},
	}
}

// PresetIOBound floods the IO queue: most processes request IO often.
func PresetIOBound() *LevelSpec {
	return &LevelSpec{
		Name: "io-bound", Description: "Jobs that spend more time waiting on IO than computing.",
		TimeLimit: ptr(240), InitialCPUs: 2, MaxCPUs: 3,
		MaxProcessesInSystem: ptr(8), SpawnInterval: &RangeSpec{Min: 3, Max: 6},
		IODispatchDelay: RangeSpec{Min: 0, Max: 2},
		Processes: []TemplateSpec{
			{Name: "reader", BurstTime: RangeSpec{Min: 8, Max: 14},
				IORequestProbability: 0.6, IOCheckInterval: &RangeSpec{Min: 1, Max: 3},
				IODuration: RangeSpec{Min: 2, Max: 5}},
			{Name: "cruncher", BurstTime: RangeSpec{Min: 10, Max: 20},
				Deadline: &DeadlineSpec{Ticks: 20}},
		},
	}
}

// PresetDeadlines spawns fast with tight deadlines and expensive context switches.
func PresetDeadlines() *LevelSpec {
	return &LevelSpec{
		Name: "deadlines", Description: "Tight deadlines, costly preemption.",
		TimeLimit: ptr(180), InitialCPUs: 2, MaxCPUs: 4,
		MaxMissableProcesses: ptr(3), MaxProcessesInSystem: ptr(0),
		SpawnInterval: &RangeSpec{Min: 2, Max: 5}, ContextSwitchTicks: ptr(8),
		Processes: []TemplateSpec{
			{Name: "interactive", BurstTime: RangeSpec{Min: 2, Max: 4},
				Deadline: &DeadlineSpec{Ticks: 6}},
			{Name: "batch", BurstTime: RangeSpec{Min: 12, Max: 25},
				IORequestProbability: 0.1, IOCheckInterval: &RangeSpec{Min: 4, Max: 4},
				IODuration: RangeSpec{Min: 4, Max: 8},
				Deadline:   &DeadlineSpec{Ticks: 25, Probability: ptr(0.3)}},
		},
	}
}

// PresetEndless has no time limit; it ends only when too many processes are missed.
func PresetEndless() *LevelSpec {
	return &LevelSpec{
		Name: "endless", Description: "No time limit. Survive as long as you can.",
		TimeLimit: ptr(0), InitialCPUs: 2, MaxCPUs: 6,
		MaxMissableProcesses: ptr(10), MaxProcessesInSystem: ptr(10),
		SpawnInterval: &RangeSpec{Min: 2, Max: 4},
		Processes: []TemplateSpec{
			{Name: "process", BurstTime: RangeSpec{Min: 4, Max: 12},
				IORequestProbability: 0.25, IOCheckInterval: &RangeSpec{Min: 2, Max: 4},
				IODuration: RangeSpec{Min: 2, Max: 6},
				Deadline:   &DeadlineSpec{Ticks: 12, Probability: ptr(0.6)}},
		},
	}
}

// presets is the registry of built-in levels by name.
var presets = map[string]func() *LevelSpec{
	"tutorial":  PresetTutorial,
	"classic":   PresetClassic,
	"io-bound":  PresetIOBound,
	"deadlines": PresetDeadlines,
	"endless":   PresetEndless,
}

// PresetNames returns the names of the built-in levels in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named built-in level.
func Preset(name string) (*LevelSpec, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown level preset %q; valid: %s", name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// Resolve returns the level named by ref: a preset name, or otherwise a path
// to a YAML level file.
func Resolve(ref string) (*LevelSpec, error) {
	if _, ok := presets[ref]; ok {
		return Preset(ref)
	}
	return LoadLevelSpec(ref)
}
