package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yaplytics/mindshare/pkg/coordinator"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Start the tracker service",
	Long: `The service runs the weekly collection trigger and the daily retention
sweep until interrupted.`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
}

func runService(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
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

	log.Info("Configuration loaded")

	app := coordinator.NewApplication(config, log)
	if err := app.Start(context.Background()); err != nil {
		return err
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	return app.Stop()
}
