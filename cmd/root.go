package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/autoplay"
	"github.com/procsched/schedsim/sim/levels"
	"github.com/procsched/schedsim/sim/recorder"
	"github.com/procsched/schedsim/sim/trace"
)

var (
	// Global flags
	logLevel string // Log verbosity level
	envFile  string // .env file supplying SCHEDSIM_* flag defaults

	// CLI flags shared by run and serve
	levelRef     string // Preset name or path to a level YAML file
	seed         int64  // Seed for process spawning and IO rolls
	timeLimit    int    // Overrides the level time limit (ticks, 0 = unlimited)
	initialCPUs  int    // Overrides the level's initial CPU count
	contextCost  int    // Overrides the context-switch cost (ticks)
	traceLevel   string // Trace verbosity: none, commands, all
	dbPath       string // SQLite database to record runs into ("" = off)
	tickDuration float64

	// CLI flags for the headless run
	strategyName string // Autoplay strategy
	preempt      bool   // Allow the autoplayer to preempt running CPUs
	horizon      int64  // Safety bound on processed ticks for unlimited levels
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "schedsim",
	Short: "Tick-driven CPU process-scheduling simulator",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		if err := applyEnvDefaults(cmd); err != nil {
			return err
		}
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// levelOverrides carries the flags that replace level file values.
type levelOverrides struct {
	timeLimit   *int
	initialCPUs *int
	contextCost *int
}

// overridesFromFlags collects only the flags the user actually set.
func overridesFromFlags(cmd *cobra.Command) levelOverrides {
	var o levelOverrides
	if cmd.Flags().Changed("time-limit") {
		o.timeLimit = &timeLimit
	}
	if cmd.Flags().Changed("cpus") {
		o.initialCPUs = &initialCPUs
	}
	if cmd.Flags().Changed("context-switch") {
		o.contextCost = &contextCost
	}
	return o
}

// buildLevelConfig resolves ref to a level and applies the overrides.
func buildLevelConfig(ref string, o levelOverrides) (*sim.LevelConfig, error) {
	spec, err := levels.Resolve(ref)
	if err != nil {
		return nil, err
	}
	cfg, err := spec.ToConfig()
	if err != nil {
		return nil, fmt.Errorf("level %q: %w", ref, err)
	}
	if o.timeLimit != nil {
		cfg.TimeLimit = *o.timeLimit
	}
	if o.initialCPUs != nil {
		cfg.InitialCPUs = *o.initialCPUs
	}
	if o.contextCost != nil {
		cfg.ContextSwitchTicks = *o.contextCost
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("level %q: %w", ref, err)
	}
	return cfg, nil
}

// newTrace returns nil when tracing is disabled.
func newTrace(level string) *trace.SimulationTrace {
	if level == "" || trace.TraceLevel(level) == trace.TraceLevelNone {
		return nil
	}
	return trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(level)})
}

// checkTraceLevel rejects an unknown --trace-level value.
func checkTraceLevel(level string) error {
	if !trace.IsValidTraceLevel(level) {
		return fmt.Errorf("unknown trace level %q; valid: none, commands, all", level)
	}
	return nil
}

// runCmd plays a level headlessly with the autoplayer
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a level headlessly with an autoplay strategy",
	Run: func(cmd *cobra.Command, args []string) {
		if !autoplay.IsValidStrategy(strategyName) {
			logrus.Fatalf("Unknown strategy %q; valid: %v", strategyName, autoplay.StrategyNames())
		}
		if err := checkTraceLevel(traceLevel); err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg, err := buildLevelConfig(levelRef, overridesFromFlags(cmd))
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx := context.Background()
		st := newTrace(traceLevel)
		opts := []sim.Option{sim.WithTrace(st), sim.WithTickDuration(tickDuration)}

		var rec *recorder.Recorder
		if dbPath != "" {
			rec, err = recorder.Open(ctx, dbPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			opts = append(opts, sim.WithTelemetrySink(rec))
		}

		level := sim.NewLevelController(cfg, seed, opts...)
		if err := level.ResetLevel(); err != nil {
			logrus.Fatalf("%v", err)
		}
		if rec != nil {
			id, err := rec.StartRun(ctx, cfg.Name, seed)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Recording run %s to %s", id, dbPath)
		}

		startTime := time.Now()
		player := autoplay.NewPlayer(autoplay.NewStrategy(strategyName, cfg.ContextSwitchTicks), preempt)
		ticks := playHeadless(level, player, horizon)
		logrus.Infof("Processed %d ticks in %v", ticks, time.Since(startTime))

		level.Summary().Print(os.Stdout)
		if st != nil {
			printTraceSummary(trace.Summarize(st))
		}
		if rec != nil {
			if err := rec.RecordTrace(ctx, st); err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := rec.Close(); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

// playHeadless lets player issue commands before every tick until the level
// ends or horizon ticks were processed. Returns the number of ticks processed.
func playHeadless(level *sim.LevelController, player *autoplay.Player, horizon int64) int64 {
	var n int64
	for level.Phase() == sim.PhaseRunning && n < horizon {
		player.Act(level)
		level.Step()
		n++
	}
	if level.Phase() == sim.PhaseRunning {
		logrus.Warnf("Horizon of %d ticks reached before the level ended", horizon)
	}
	return n
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Println("=== Trace Summary ===")
	fmt.Printf("Commands             : %d (%d accepted, %d rejected)\n", s.TotalCommands, s.AcceptedCount, s.RejectedCount)
	for reason, n := range s.RejectionReasons {
		fmt.Printf("  rejected %-12d: %s\n", n, reason)
	}
	if s.Spawned > 0 {
		fmt.Printf("Spawned              : %d\n", s.Spawned)
		fmt.Printf("Finished / Missed    : %d / %d\n", s.Finished, s.Missed)
		fmt.Printf("Max Turnaround       : %d ticks\n", s.MaxTurnaround)
	}
}

// Execute runs the CLI root command. Exit handlers registered with atexit
// (recorder flushes) run on every exit path, including logrus.Fatalf.
func Execute() {
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// addLevelFlags registers the flags shared by commands that start a level.
func addLevelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&levelRef, "level", "classic", "Level preset name or path to a level YAML file")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for process spawning and IO rolls")
	cmd.Flags().IntVar(&timeLimit, "time-limit", sim.DefaultTimeLimit, "Override the level time limit in ticks (0 = unlimited)")
	cmd.Flags().IntVar(&initialCPUs, "cpus", 2, "Override the level's initial CPU count")
	cmd.Flags().IntVar(&contextCost, "context-switch", sim.DefaultContextSwitchTicks, "Override the context-switch cost in ticks")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity (none, commands, all)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to record runs into (empty disables recording)")
	cmd.Flags().Float64Var(&tickDuration, "tick-duration", sim.DefaultTickDuration, "Scaled seconds per tick")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with SCHEDSIM_* variables supplying flag defaults")

	addLevelFlags(runCmd)
	runCmd.Flags().StringVar(&strategyName, "strategy", "fcfs", "Autoplay strategy (fcfs, shortest-remaining, earliest-deadline)")
	runCmd.Flags().BoolVar(&preempt, "preempt", false, "Let the autoplayer preempt running CPUs")
	runCmd.Flags().Int64Var(&horizon, "horizon", 100000, "Maximum ticks to process (bounds unlimited levels)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
