package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var diagnoseWindow string

//nolint:gochecknoglobals // Cobra commands are typically global
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Probe the primary leaderboard source and report the round-trip time",
	RunE:  runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVar(&diagnoseWindow, "window", "7d", "leaderboard window to probe")
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfigFromFile(cfgFile)
	if err != nil {
		return err
	}

	log, err := loggerFromConfig(config)
	if err != nil {
		return err
	}

	window, err := leaderboard.ParseWindow(diagnoseWindow)
	if err != nil {
		return err
	}

	client, err := fetch.NewClient(log, &config.Fetch, fetch.NewCache(config.Fetch.CacheTTL))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	elapsed, err := client.Diagnose(ctx, window)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Window  leaderboard.Window `json:"window"`
		Elapsed string             `json:"elapsed"`
	}{Window: window, Elapsed: elapsed.String()})
}
