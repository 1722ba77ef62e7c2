package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/schedsim/sim/recorder"
)

var historyLimit int // Number of runs to list

// historyCmd lists runs recorded into a SQLite database
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Run: func(cmd *cobra.Command, args []string) {
		if dbPath == "" {
			logrus.Fatalf("--db is required")
		}
		ctx := context.Background()
		rec, err := recorder.Open(ctx, dbPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer rec.Close()

		runs, err := rec.ListRuns(ctx, historyLimit)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printRuns(os.Stdout, runs)
	},
}

func printRuns(w io.Writer, runs []recorder.RunRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLEVEL\tSEED\tTICKS\tFINISHED\tMISSED\tRESULT")
	for _, r := range runs {
		result := "in progress"
		if r.Ended {
			result = "failed"
			if r.Success {
				result = "success"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", r.ID, r.Level, r.Seed, r.Elapsed, r.Finished, r.Missed, result)
	}
	tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database with recorded runs")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
