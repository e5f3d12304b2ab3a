package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var pruneWeeks int

//nolint:gochecknoglobals // Cobra commands are typically global
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots past the retention window and exit",
	RunE:  runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().IntVar(&pruneWeeks, "weeks", 0, "retention window in weeks (0 uses the configured value)")
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tr, cleanup, err := newOneShotTracker(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// An explicit --weeks bypasses the trigger state machine; the default
	// path goes through the coordinator like a scheduled sweep would
	if pruneWeeks > 0 {
		result := tr.Prune(ctx, pruneWeeks)
		if err := printJSON(result); err != nil {
			return err
		}

		return result.Err()
	}

	result := tr.RunRetentionNow(ctx)
	if err := printJSON(result); err != nil {
		return err
	}

	return result.Err()
}
