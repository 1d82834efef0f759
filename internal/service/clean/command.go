package clean

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
	"github.com/cometlabs/shipper/internal/platform"
)

// Options are inputs accepted by the cleanup entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// executableSuffix is appended to the application process name on Windows.
const executableSuffix = ".exe"

// Run removes the deployment working directory, the produced artifact and
// any leftover staging directories. Every removal is attempted and logged
// independently; no removal failure is ever fatal.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cleanup")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	run(ctx, cfg, platform.Detect(ctx, cfg))
	logger.Info(ctx, "Cleanup done")

	return nil
}

func run(ctx context.Context, cfg *config.Config, profile platform.Profile) {
	warnIfApplicationRunning(ctx, cfg, profile)

	removeTarget(ctx, "deployment directory", cfg.DeployDir())

	artifact, _, err := platform.Resolve(cfg, profile)
	if err != nil {
		// No artifact names exist for this platform; the deployment
		// directory is the only target.
		logger.InfoKV(ctx, "No platform artifacts to clean", "family", profile.Family.String())
		return
	}

	removeTarget(ctx, "artifact", artifact.Path())

	switch profile.Family {
	case platform.FamilyWindows:
		// A previously unpacked archive at the project root.
		leftover := filepath.Join(cfg.ProjectRoot, platform.RenamedBuildDirName(cfg, profile))
		removeTarget(ctx, "unpacked build directory", leftover)
	case platform.FamilyMac:
		removeTarget(ctx, "staging directory", cfg.StagingPath())
	}
}

// removeTarget removes one path and logs the outcome. Absent targets and
// removal failures are both reported without affecting other targets.
func removeTarget(ctx context.Context, label, path string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.InfoKV(ctx, "Nothing to remove", "target", label, "path", path)
		return
	}

	if err := os.RemoveAll(path); err != nil {
		logger.ErrorKV(ctx, "Removal failed", "target", label, "path", path, "error", err)
		return
	}

	logger.InfoKV(ctx, "Removed", "target", label, "path", path)
}

// warnIfApplicationRunning scans the process table for the packaged
// application: on Windows, removing the directory of a running
// executable fails with locked-file errors.
func warnIfApplicationRunning(ctx context.Context, cfg *config.Config, profile platform.Profile) {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to scan processes", "error", err)
		return
	}

	executable := cfg.AppName
	if profile.Family == platform.FamilyWindows {
		executable += executableSuffix
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if !strings.EqualFold(process.Executable(), executable) {
			continue
		}

		logger.WarnKV(ctx, "Application is running, removals may fail",
			"process", executable, "pid", process.Pid())

		return
	}
}
