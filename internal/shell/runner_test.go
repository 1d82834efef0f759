package shell

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cometlabs/shipper/internal/platform"
)

func hostRunner() Runner {
	return New(platform.FamilyForGOOS(runtime.GOOS), "")
}

// TestRunCapturesStdout runs a trivial command and checks output capture.
func TestRunCapturesStdout(t *testing.T) {
	t.Parallel()

	res, err := hostRunner().Run(context.Background(), "echo hello")
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, string(res.Stdout), "hello")
}

// TestRunCapturesStderr uses stream redirection understood by both shells.
func TestRunCapturesStderr(t *testing.T) {
	t.Parallel()

	res, err := hostRunner().Run(context.Background(), "echo oops 1>&2")
	require.NoError(t, err)
	require.Contains(t, string(res.Stderr), "oops")
}

// TestRunNonZeroExit yields an ExitError carrying the exit code.
func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	res, err := hostRunner().Run(context.Background(), "exit 7")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 7, exitErr.Result.ExitCode)
	require.NotNil(t, res)
	require.Equal(t, 7, res.ExitCode)
}

// TestDumpWritesBothStreams verifies the verbatim stream dump.
func TestDumpWritesBothStreams(t *testing.T) {
	t.Parallel()

	res := &Result{Stdout: []byte("out-line\n"), Stderr: []byte("err-line\n")}

	var buf bytes.Buffer
	res.Dump(&buf)

	require.Contains(t, buf.String(), "out-line")
	require.Contains(t, buf.String(), "err-line")
	require.Contains(t, buf.String(), "stdout:")
	require.Contains(t, buf.String(), "stderr:")
}
