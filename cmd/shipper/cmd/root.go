package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/service/assets"
	"github.com/cometlabs/shipper/internal/service/clean"
	"github.com/cometlabs/shipper/internal/service/deploy"
	"github.com/cometlabs/shipper/internal/version"
)

// Exit codes per mode outcome.
const (
	// exitDownloadFailed is returned when any asset download failed.
	exitDownloadFailed = 1
	// exitUnsupportedPlatform is returned when the platform cannot
	// produce a release at all.
	exitUnsupportedPlatform = 2
	// exitPipelineFailed is returned on build or packaging failure; 255
	// is what the operating system reports for a -1 exit status.
	exitPipelineFailed = 255
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel sets the minimum logging level.
	logLevel string
	// cleanupMode removes deployment state instead of building.
	cleanupMode bool
	// downloadMode fetches data assets instead of building.
	downloadMode bool

	// rootCmd represents the base command driving the release pipeline.
	rootCmd = &cobra.Command{
		Use:   "shipper",
		Short: "Build and package a desktop application release.",
		Long: `Drives the native compiler toolchain to produce a standalone build and
packages it into the platform release artifact: a zip archive on Windows,
a disk image on macOS.

Without flags the full build-and-package sequence runs. The cleanup mode
removes deployment state from prior runs; the download mode fetches the
data assets the packaged application ships with.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			switch {
			case cleanupMode:
				return clean.Run(ctx, &clean.Options{ConfigPath: configPath})
			case downloadMode:
				return assets.Run(ctx, &assets.Options{ConfigPath: configPath})
			default:
				return deploy.Run(ctx, &deploy.Options{ConfigPath: configPath})
			}
		},
	}
)

// Execute runs the shipper CLI and maps failures onto process exit codes.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor distinguishes recoverable download failures from fatal
// pipeline failures for the invoking CI system.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, assets.ErrDownloadsFailed):
		return exitDownloadFailed
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		return exitUnsupportedPlatform
	default:
		return exitPipelineFailed
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().BoolVarP(&cleanupMode, "cleanup", "c", false, "remove deployment state from prior runs")
	rootCmd.Flags().BoolVarP(&downloadMode, "download", "d", false, "download the latest data asset files")
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum logging level (debug, info, warn, error)")

	rootCmd.MarkFlagsMutuallyExclusive("cleanup", "download")
}
