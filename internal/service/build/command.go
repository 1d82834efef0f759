package build

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/shell"
)

var (
	// ErrBuildFailed reports a non-zero exit from the build toolchain.
	ErrBuildFailed = errors.New("build failed")

	// errToolchainMissing reports that the compiler toolchain cannot be invoked.
	errToolchainMissing = errors.New("toolchain unavailable, please install nuitka")
)

// toolchainProbe verifies the compiler is invocable before the real build.
const toolchainProbe = "python -m nuitka --version"

// Invoke resolves the platform build command and runs it. On failure the
// exit code and both captured streams are surfaced in full; the failure
// is fatal to the run, with no retry.
func Invoke(ctx context.Context, runner shell.Runner, cfg *config.Config, profile platform.Profile) (*shell.Result, error) {
	ctx = logger.WithName(ctx, "build")

	// Resolution must refuse unsupported platforms before any external call.
	_, command, err := platform.Resolve(cfg, profile)
	if err != nil {
		return nil, err
	}

	if err = checkToolchain(ctx, runner); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Building standalone application")

	result, err := runner.Run(ctx, command.Template)
	if err != nil {
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) {
			logger.ErrorKV(ctx, "Build failed", "exit_code", exitErr.Result.ExitCode)
			exitErr.Result.Dump(os.Stdout)

			return result, fmt.Errorf("%w: %s", ErrBuildFailed, exitErr)
		}

		return nil, fmt.Errorf("invoke toolchain: %w", err)
	}

	logger.InfoKV(ctx, "Build succeeded", "output_dir", command.OutputDir)
	result.Dump(os.Stdout)

	return result, nil
}

// checkToolchain probes the compiler once so a missing installation fails
// with actionable guidance instead of a full build-command error dump.
func checkToolchain(ctx context.Context, runner shell.Runner) error {
	if _, err := runner.Run(ctx, toolchainProbe); err != nil {
		return fmt.Errorf("%w: %s", errToolchainMissing, err)
	}

	return nil
}
