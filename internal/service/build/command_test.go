package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/shell"
)

// stubRunner records commands and replays scripted outcomes.
type stubRunner struct {
	commands []string
	results  []*shell.Result
	errs     []error
}

func (s *stubRunner) Run(_ context.Context, command string) (*shell.Result, error) {
	i := len(s.commands)
	s.commands = append(s.commands, command)

	var (
		res *shell.Result
		err error
	)

	if i < len(s.results) {
		res = s.results[i]
	} else {
		res = &shell.Result{}
	}

	if i < len(s.errs) {
		err = s.errs[i]
	}

	return res, err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{AppName: "Orbit", AppVersion: "2.0.0"}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestInvokeSuccess probes the toolchain, runs the build command, and
// returns the captured result.
func TestInvokeSuccess(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{
		results: []*shell.Result{
			{Stdout: []byte("Nuitka 1.7\n")},
			{Stdout: []byte("build output")},
		},
	}

	profile := platform.Profile{Family: platform.FamilyWindows, Release: "11", Architecture: "amd64"}

	result, err := Invoke(context.Background(), runner, testConfig(t), profile)
	require.NoError(t, err)
	require.Equal(t, "build output", string(result.Stdout))
	require.Len(t, runner.commands, 2)
	require.Equal(t, toolchainProbe, runner.commands[0])
	require.Contains(t, runner.commands[1], "nuitka")
	require.Contains(t, runner.commands[1], "Orbit-Deploy")
}

// TestInvokeUnsupportedPlatform refuses before any external call.
func TestInvokeUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}

	_, err := Invoke(context.Background(), runner, testConfig(t), platform.Profile{Family: platform.FamilyOther})
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
	require.Empty(t, runner.commands)
}

// TestInvokeToolchainMissing fails with guidance before running the build.
func TestInvokeToolchainMissing(t *testing.T) {
	t.Parallel()

	probeFailure := &shell.ExitError{Result: &shell.Result{ExitCode: 1}}
	runner := &stubRunner{
		results: []*shell.Result{{ExitCode: 1}},
		errs:    []error{probeFailure},
	}

	profile := platform.Profile{Family: platform.FamilyMac, Architecture: "arm64", ToolchainVersion: "6.5.2"}

	_, err := Invoke(context.Background(), runner, testConfig(t), profile)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nuitka")
	require.Len(t, runner.commands, 1)
}

// TestInvokeBuildFailure propagates ErrBuildFailed with the exit result.
func TestInvokeBuildFailure(t *testing.T) {
	t.Parallel()

	buildFailure := &shell.ExitError{
		Result: &shell.Result{ExitCode: 3, Stderr: []byte("compile error")},
	}
	runner := &stubRunner{
		results: []*shell.Result{{}, buildFailure.Result},
		errs:    []error{nil, buildFailure},
	}

	profile := platform.Profile{Family: platform.FamilyWindows, Release: "10", Architecture: "amd64"}

	result, err := Invoke(context.Background(), runner, testConfig(t), profile)
	require.ErrorIs(t, err, ErrBuildFailed)
	require.NotNil(t, result)
	require.Equal(t, 3, result.ExitCode)
}
