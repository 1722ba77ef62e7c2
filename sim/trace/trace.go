package trace

// TraceLevel controls the verbosity of level tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelCommands captures every input-adapter command, accepted or rejected.
	TraceLevelCommands TraceLevel = "commands"
	// TraceLevelAll additionally captures process spawn, finish and miss events.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelCommands: true,
	TraceLevelAll:      true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during one level run.
type SimulationTrace struct {
	Config    TraceConfig
	Commands  []CommandRecord
	Lifecycle []LifecycleRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:    config,
		Commands:  make([]CommandRecord, 0),
		Lifecycle: make([]LifecycleRecord, 0),
	}
}

// RecordCommand appends a command record unless tracing is disabled.
func (st *SimulationTrace) RecordCommand(record CommandRecord) {
	if st.Config.Level != TraceLevelCommands && st.Config.Level != TraceLevelAll {
		return
	}
	st.Commands = append(st.Commands, record)
}

// RecordLifecycle appends a lifecycle record. Only TraceLevelAll keeps them.
func (st *SimulationTrace) RecordLifecycle(record LifecycleRecord) {
	if st.Config.Level != TraceLevelAll {
		return
	}
	st.Lifecycle = append(st.Lifecycle, record)
}

// Reset drops every record, keeping the configuration. Called when a level restarts.
func (st *SimulationTrace) Reset() {
	st.Commands = st.Commands[:0]
	st.Lifecycle = st.Lifecycle[:0]
}
