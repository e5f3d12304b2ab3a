package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store-wide snapshot totals and the trigger schedule",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tr, cleanup, err := newOneShotTracker(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats := tr.Stats(ctx)
	if !stats.Success {
		_ = printJSON(stats)
		return stats.Err()
	}

	schedule := tr.ScheduleInfo(ctx)

	return printJSON(struct {
		Stats    any `json:"stats"`
		Schedule any `json:"schedule"`
	}{Stats: stats.Stats, Schedule: schedule.Triggers})
}
