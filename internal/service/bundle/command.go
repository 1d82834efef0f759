package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/shell"
)

// ErrPackagingFailed reports that the raw build could not be turned into
// the final artifact.
var ErrPackagingFailed = errors.New("packaging failed")

const (
	// stagingDirPermissions is used when recreating staging directories.
	stagingDirPermissions = 0o755

	// distSuffix is the directory suffix the toolchain gives the raw
	// standalone build on Windows.
	distSuffix = ".dist"

	// bundleSuffix is the application bundle suffix on macOS.
	bundleSuffix = ".app"
)

// Package post-processes the raw build output in the deployment
// directory into the final platform artifact and returns its path.
func Package(ctx context.Context, runner shell.Runner, cfg *config.Config, profile platform.Profile) (string, error) {
	ctx = logger.WithName(ctx, "bundle")

	artifact, _, err := platform.Resolve(cfg, profile)
	if err != nil {
		return "", err
	}

	if profile.Family == platform.FamilyMac {
		return packageDiskImage(ctx, runner, cfg, artifact)
	}

	return packageArchive(ctx, cfg, profile, artifact)
}

// packageArchive renames the standalone build directory to its canonical
// name and compresses it into a zip at the project root. Reruns produce
// the same artifact: the canonical directory is replaced each time.
func packageArchive(ctx context.Context, cfg *config.Config, profile platform.Profile, artifact *platform.Artifact) (string, error) {
	deployDir := cfg.DeployDir()
	dirName := platform.RenamedBuildDirName(cfg, profile)
	renamed := filepath.Join(deployDir, dirName)

	// RemoveAll tolerates an absent directory and propagates anything else.
	if err := os.RemoveAll(renamed); err != nil {
		return "", fmt.Errorf("%w: remove stale build directory: %v", ErrPackagingFailed, err)
	}

	source := filepath.Join(deployDir, cfg.AppName+distSuffix)
	if err := copyTree(source, renamed); err != nil {
		return "", fmt.Errorf("%w: copy standalone build: %v", ErrPackagingFailed, err)
	}

	if err := writeZip(artifact.Path(), deployDir, dirName); err != nil {
		return "", fmt.Errorf("%w: compress build directory: %v", ErrPackagingFailed, err)
	}

	logger.InfoKV(ctx, "Archive created", "path", artifact.Path())

	return artifact.Path(), nil
}

// packageDiskImage stages the application bundle into a disposable
// directory and drives the external disk-image builder.
func packageDiskImage(ctx context.Context, runner shell.Runner, cfg *config.Config, artifact *platform.Artifact) (string, error) {
	staging := cfg.StagingPath()

	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("%w: remove staging directory: %v", ErrPackagingFailed, err)
	}

	if err := os.MkdirAll(staging, stagingDirPermissions); err != nil {
		return "", fmt.Errorf("%w: create staging directory: %v", ErrPackagingFailed, err)
	}

	bundleName := cfg.AppName + bundleSuffix
	source := filepath.Join(cfg.DeployDir(), bundleName)

	if err := copyTree(source, filepath.Join(staging, bundleName)); err != nil {
		return "", fmt.Errorf("%w: stage application bundle: %v", ErrPackagingFailed, err)
	}

	logger.Info(ctx, "Generating disk image")

	result, err := runner.Run(ctx, diskImageCommand(cfg, artifact, staging))
	if err != nil {
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) {
			logger.ErrorKV(ctx, "Disk image generation failed", "exit_code", exitErr.Result.ExitCode)
			exitErr.Result.Dump(os.Stdout)

			return "", fmt.Errorf("%w: %s", ErrPackagingFailed, exitErr)
		}

		return "", fmt.Errorf("invoke disk image builder: %w", err)
	}

	result.Dump(os.Stdout)
	logger.InfoKV(ctx, "Disk image created", "path", artifact.Path())

	return artifact.Path(), nil
}

// diskImageCommand builds the create-dmg invocation with the fixed
// window and icon layout of the release disk image.
func diskImageCommand(cfg *config.Config, artifact *platform.Artifact, staging string) string {
	bundleName := cfg.AppName + bundleSuffix

	return fmt.Sprintf(
		`create-dmg `+
			`--volname "%s" `+
			`--volicon "%s" `+
			`--window-pos 200 120 `+
			`--window-size 600 300 `+
			`--icon-size 100 `+
			`--icon "%s" 175 120 `+
			`--hide-extension "%s" `+
			`--app-drop-link 425 120 `+
			`"%s" `+
			`"%s"`,
		cfg.AppName, cfg.IconPath, bundleName, bundleName, artifact.Path(), staging)
}
