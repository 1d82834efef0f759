package bundle

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/platform"
	"github.com/cometlabs/shipper/internal/shell"
)

// stubRunner records commands and replays a scripted outcome.
type stubRunner struct {
	commands []string
	result   *shell.Result
	err      error
}

func (s *stubRunner) Run(_ context.Context, command string) (*shell.Result, error) {
	s.commands = append(s.commands, command)

	if s.result == nil {
		return &shell.Result{}, s.err
	}

	return s.result, s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		AppName:     "Orbit",
		AppVersion:  "2.0.0",
		ProjectRoot: t.TempDir(),
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// seedStandaloneBuild creates the raw toolchain output directory.
func seedStandaloneBuild(t *testing.T, cfg *config.Config, dirName string) {
	t.Helper()

	root := filepath.Join(cfg.DeployDir(), dirName)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Orbit.bin"), []byte("binary"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "core.dat"), []byte("library"), 0o644))
}

// zipEntries returns sorted entry names and the content of regular files.
func zipEntries(t *testing.T, path string) ([]string, map[string]string) {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))
	contents := make(map[string]string, len(reader.File))

	for _, file := range reader.File {
		names = append(names, file.Name)

		if file.FileInfo().IsDir() {
			continue
		}

		rc, openErr := file.Open()
		require.NoError(t, openErr)

		data, readErr := io.ReadAll(rc)
		require.NoError(t, readErr)
		require.NoError(t, rc.Close())

		contents[file.Name] = string(data)
	}

	sort.Strings(names)

	return names, contents
}

// TestPackageArchive compresses the renamed build into a zip at the
// project root with entries rooted at the canonical directory name.
func TestPackageArchive(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedStandaloneBuild(t, cfg, "Orbit.dist")

	profile := platform.Profile{Family: platform.FamilyWindows, Release: "11", Architecture: "amd64"}

	path, err := Package(context.Background(), &stubRunner{}, cfg, profile)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cfg.ProjectRoot, "Orbit-2.0.0-windows11-amd64.zip"), path)

	names, contents := zipEntries(t, path)
	require.Contains(t, names, "Orbit-2.0.0-windows11/Orbit.bin")
	require.Contains(t, names, "Orbit-2.0.0-windows11/lib/core.dat")
	require.Equal(t, "binary", contents["Orbit-2.0.0-windows11/Orbit.bin"])
	require.Equal(t, "library", contents["Orbit-2.0.0-windows11/lib/core.dat"])
}

// TestPackageArchiveRerun repackages without cleanup and produces an
// artifact with identical name and content.
func TestPackageArchiveRerun(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedStandaloneBuild(t, cfg, "Orbit.dist")

	profile := platform.Profile{Family: platform.FamilyWindows, Release: "10", Architecture: "amd64"}

	first, err := Package(context.Background(), &stubRunner{}, cfg, profile)
	require.NoError(t, err)

	firstNames, firstContents := zipEntries(t, first)

	second, err := Package(context.Background(), &stubRunner{}, cfg, profile)
	require.NoError(t, err)
	require.Equal(t, first, second)

	secondNames, secondContents := zipEntries(t, second)
	require.Equal(t, firstNames, secondNames)
	require.Equal(t, firstContents, secondContents)
}

// TestPackageDiskImage stages the bundle and drives the disk-image builder.
func TestPackageDiskImage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedStandaloneBuild(t, cfg, "Orbit.app")

	runner := &stubRunner{result: &shell.Result{Stdout: []byte("created")}}
	profile := platform.Profile{Family: platform.FamilyMac, Architecture: "arm64", ToolchainVersion: "6.5.2"}

	path, err := Package(context.Background(), runner, cfg, profile)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cfg.ProjectRoot, "Orbit-2.0.0-macOS-11.0-arm64.dmg"), path)

	// Bundle was staged into the disposable directory.
	_, err = os.Stat(filepath.Join(cfg.StagingPath(), "Orbit.app", "Orbit.bin"))
	require.NoError(t, err)

	require.Len(t, runner.commands, 1)
	require.Contains(t, runner.commands[0], "create-dmg")
	require.Contains(t, runner.commands[0], `--volname "Orbit"`)
	require.Contains(t, runner.commands[0], path)
}

// TestPackageDiskImageStagingRecreated replaces stale staging content.
func TestPackageDiskImageStagingRecreated(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedStandaloneBuild(t, cfg, "Orbit.app")

	stale := filepath.Join(cfg.StagingPath(), "leftover.txt")
	require.NoError(t, os.MkdirAll(cfg.StagingPath(), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	profile := platform.Profile{Family: platform.FamilyMac, Architecture: "arm64", ToolchainVersion: "6.5.2"}

	_, err := Package(context.Background(), &stubRunner{}, cfg, profile)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPackageDiskImageToolFailure surfaces the tool output and leaves the
// deployment directory intact.
func TestPackageDiskImageToolFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedStandaloneBuild(t, cfg, "Orbit.app")

	toolFailure := &shell.ExitError{
		Result: &shell.Result{ExitCode: 2, Stderr: []byte("icon not found")},
	}
	runner := &stubRunner{result: toolFailure.Result, err: toolFailure}
	profile := platform.Profile{Family: platform.FamilyMac, Architecture: "arm64", ToolchainVersion: "6.5.2"}

	_, err := Package(context.Background(), runner, cfg, profile)
	require.ErrorIs(t, err, ErrPackagingFailed)

	// Failure does not trigger cleanup of the deployment directory.
	_, err = os.Stat(filepath.Join(cfg.DeployDir(), "Orbit.app"))
	require.NoError(t, err)
}

// TestPackageUnsupportedPlatform refuses before touching the filesystem.
func TestPackageUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	runner := &stubRunner{}

	_, err := Package(context.Background(), runner, cfg, platform.Profile{Family: platform.FamilyOther})
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
	require.Empty(t, runner.commands)
}
