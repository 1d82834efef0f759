package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/fatih/color"

	"github.com/cometlabs/shipper/internal/platform"
)

// Result captures a finished external invocation. Streams are fully
// buffered, never streamed.
type Result struct {
	// ExitCode is the process exit status.
	ExitCode int
	// Stdout is the full captured standard output.
	Stdout []byte
	// Stderr is the full captured standard error.
	Stderr []byte
}

// Dump writes both captured streams to w with colored section headers,
// for operator diagnosis. Streams are written verbatim.
func (r *Result) Dump(w io.Writer) {
	header := color.New(color.FgCyan, color.Bold)

	_, _ = header.Fprintln(w, "stdout:")
	_, _ = w.Write(r.Stdout)
	_, _ = header.Fprintln(w, "stderr:")
	_, _ = w.Write(r.Stderr)
}

// ExitError reports a non-zero exit from an external tool, carrying the
// full captured output for diagnosis.
type ExitError struct {
	// Result holds the exit code and captured streams.
	Result *Result
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Result.ExitCode)
}

// Runner executes a command line and reports its outcome.
//
// Commands are interpreted by the platform shell: templates embed quoting
// and environment-style placeholders that must be expanded there. This
// layer performs no sanitization; callers own command-string safety.
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
}

// shellRunner invokes commands through cmd /C or sh -c from a fixed
// working directory.
type shellRunner struct {
	family platform.Family
	dir    string
}

// New returns a Runner executing through the shell of the given platform
// family, with dir as the working directory ("" keeps the caller's).
func New(family platform.Family, dir string) Runner {
	return &shellRunner{family: family, dir: dir}
}

// Run blocks until the command exits. A non-zero exit yields both the
// captured Result and an *ExitError wrapping it.
func (r *shellRunner) Run(ctx context.Context, command string) (*Result, error) {
	var cmd *exec.Cmd
	if r.family == platform.FamilyWindows {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}

	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &ExitError{Result: result}
		}

		return nil, fmt.Errorf("start command: %w", err)
	}

	return result, nil
}
