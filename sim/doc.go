// Package sim provides the discrete time-tick engine for the process
// scheduling simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - process.go: Process lifecycle (new → ready → running → io_wait → finished)
//   - cpu.go: CPU allocation and context-switch state machine
//   - level.go: LevelController, the ordered per-tick pipeline, spawning and scoring
//
// # Tick Pipeline
//
// Every tick is processed synchronously by LevelController in a fixed order:
//  0. turnaround refresh for every live process
//  1. every CPU (Running / ContextSwitch update)
//  2. IOQueue head-of-line service
//  3. ReadyQueue deadline aging
//  4. controller bookkeeping: elapsed time, stop/win evaluation, spawning
//
// Later stages read counters (finished, missed, in-system) mutated by earlier
// stages within the same tick, so the order must not change.
//
// # Ownership
//
// The controller owns the clock, the CPUs, both queues and an arena of
// processes keyed by id. Queues and CPU slots hold ids, never pointers, and a
// process id lives in exactly one container at a tick boundary.
//
// Sub-packages:
//   - sim/levels/: YAML level specs, validation and built-in presets
//   - sim/autoplay/: headless input adapters that issue Assign/MoveToIOQueue commands
//   - sim/trace/: decision trace of input-adapter commands and lifecycle events
//   - sim/recorder/: SQLite telemetry sink for per-tick snapshots
//   - sim/server/: HTTP input adapter and telemetry endpoint
package sim
