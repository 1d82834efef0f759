package deploy

import (
	"context"
	"fmt"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/service/build"
	"github.com/cometlabs/shipper/internal/service/bundle"
	"github.com/cometlabs/shipper/internal/shell"
)

// Options are inputs accepted by the deploy entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// Run executes the full release sequence: build the standalone
// application, then package it into the platform artifact. The first
// failure aborts the run; the deployment directory is left intact for
// diagnosis.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "deploy")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	profile := platform.Detect(ctx, cfg)
	runner := shell.New(profile.Family, cfg.ProjectRoot)

	// External tools block indefinitely unless a timeout is configured.
	if cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.BuildTimeout)
		defer cancel()
	}

	return run(ctx, runner, cfg, profile)
}

func run(ctx context.Context, runner shell.Runner, cfg *config.Config, profile platform.Profile) error {
	if _, err := build.Invoke(ctx, runner, cfg, profile); err != nil {
		return err
	}

	artifactPath, err := bundle.Package(ctx, runner, cfg, profile)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Release artifact ready", "path", artifactPath)

	return nil
}
