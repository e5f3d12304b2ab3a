package cmd

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaplytics/mindshare/pkg/coordinator"
	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/store"
	"github.com/yaplytics/mindshare/pkg/tracker"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var collectTimeout time.Duration

//nolint:gochecknoglobals // Cobra commands are typically global
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass and exit",
	Long: `Fetches the leaderboard for every configured window, persists one
snapshot per window, and prints the result as JSON.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().DurationVar(&collectTimeout, "timeout", 2*time.Minute, "overall deadline for the collection run")
}

// newOneShotTracker builds the facade without starting the recurring loops,
// for commands that run a single operation and exit.
func newOneShotTracker(ctx context.Context) (*tracker.Tracker, func(), error) {
	config, err := loadConfigFromFile(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := loggerFromConfig(config)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(log, &config.Store)
	if err != nil {
		return nil, nil, err
	}
	if err := st.InitSchema(ctx); err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	cache := fetch.NewCache(config.Fetch.CacheTTL)
	client, err := fetch.NewClient(log, &config.Fetch, cache)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	coord, err := coordinator.NewService(log, config, client, st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	cleanup := func() { _ = st.Close() }

	return tracker.New(log, client, st, coord), cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	tr, cleanup, err := newOneShotTracker(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result := tr.RunCollectionNow(ctx)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return result.Err()
	}

	return nil
}
