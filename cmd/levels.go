package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/schedsim/sim/levels"
)

// levelsCmd lists the built-in levels, or validates level files.
var levelsCmd = &cobra.Command{
	Use:   "levels [level.yaml ...]",
	Short: "List built-in levels or validate level files",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			listPresets(os.Stdout)
			return
		}
		failed := 0
		for _, path := range args {
			if err := validateLevelFile(path); err != nil {
				logrus.Errorf("%s: %v", path, err)
				failed++
				continue
			}
			fmt.Printf("%s: ok\n", path)
		}
		if failed > 0 {
			logrus.Fatalf("%d of %d level files invalid", failed, len(args))
		}
	},
}

func listPresets(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCPUS\tTIME LIMIT\tDESCRIPTION")
	for _, name := range levels.PresetNames() {
		spec, _ := levels.Preset(name)
		cfg, err := spec.ToConfig()
		if err != nil {
			logrus.Warnf("preset %s: %v", name, err)
			continue
		}
		limit := "unlimited"
		if cfg.TimeLimit > 0 {
			limit = fmt.Sprintf("%d", cfg.TimeLimit)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, cfg.InitialCPUs, limit, cfg.Description)
	}
	tw.Flush()
}

func validateLevelFile(path string) error {
	spec, err := levels.LoadLevelSpec(path)
	if err != nil {
		return err
	}
	_, err = spec.ToConfig()
	return err
}

func init() {
	rootCmd.AddCommand(levelsCmd)
}
