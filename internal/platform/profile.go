package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flytam/filenamify"

	"github.com/cometlabs/shipper/internal/config"
)

// Family is the closed set of operating environments the pipeline targets.
type Family int

const (
	// FamilyOther is any platform the pipeline refuses to build for.
	FamilyOther Family = iota
	// FamilyWindows covers Windows desktop and server editions.
	FamilyWindows
	// FamilyMac covers macOS.
	FamilyMac
)

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyWindows:
		return "windows"
	case FamilyMac:
		return "macOS"
	default:
		return "other"
	}
}

// FamilyForGOOS maps a GOOS value onto a Family.
func FamilyForGOOS(goos string) Family {
	switch goos {
	case "windows":
		return FamilyWindows
	case "darwin":
		return FamilyMac
	default:
		return FamilyOther
	}
}

// Profile describes the environment a release is produced on.
// It is built once at process start and never mutated.
type Profile struct {
	// Family is the operating environment class.
	Family Family
	// Release is the OS release string, e.g. "10", "11" or "2019Server".
	Release string
	// Architecture is the lowercased CPU architecture, e.g. "amd64".
	Architecture string
	// ToolchainVersion is the GUI runtime version the application is
	// compiled against.
	ToolchainVersion string
}

// Extension is the artifact file extension per platform family.
type Extension string

const (
	// ExtensionZip is the compressed-archive artifact produced on Windows.
	ExtensionZip Extension = "zip"
	// ExtensionDiskImage is the disk-image artifact produced on macOS.
	ExtensionDiskImage Extension = "dmg"
)

// Artifact names the final shippable output of a pipeline run.
type Artifact struct {
	// Name is the artifact base name without extension.
	Name string
	// Extension is the artifact file extension.
	Extension Extension
	// OutputDir is where the artifact file is placed.
	OutputDir string
}

// Filename returns the artifact file name including extension.
func (a *Artifact) Filename() string {
	return a.Name + "." + string(a.Extension)
}

// Path returns the full artifact path.
func (a *Artifact) Path() string {
	return filepath.Join(a.OutputDir, a.Filename())
}

// BuildCommand is the platform-specific toolchain invocation.
type BuildCommand struct {
	// Template is the full shell command line. It may embed quoting and
	// environment-style placeholders expanded by the platform shell.
	Template string
	// OutputDir is the deployment directory receiving raw toolchain output.
	OutputDir string
}

const (
	// serverPinnedRelease is embedded in artifact names on server
	// editions: the server line is tools-versioned identically to its
	// corresponding desktop line.
	serverPinnedRelease = "10"

	// serverReleaseSuffix marks a server edition release string.
	serverReleaseSuffix = "Server"

	// macLegacyRuntimeCeiling is the highest runtime version still
	// supporting the older minimum macOS.
	macLegacyRuntimeCeiling = "6.4.3"

	// macLegacyMinimumOS and macModernMinimumOS are the minimum macOS
	// version tags embedded in artifact names.
	macLegacyMinimumOS = "10.9"
	macModernMinimumOS = "11.0"
)

// ErrUnsupportedPlatform is returned when the current platform family
// cannot produce a release artifact.
var ErrUnsupportedPlatform = errors.New("unsupported platform family")

// Resolve derives the artifact descriptor and build command for the given
// profile. It is a pure function of its inputs: no I/O, safe to call
// repeatedly.
func Resolve(cfg *config.Config, p Profile) (*Artifact, *BuildCommand, error) {
	switch p.Family {
	case FamilyWindows:
		return resolveWindows(cfg, p)
	case FamilyMac:
		return resolveMac(cfg, p)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p.Family)
	}
}

func resolveWindows(cfg *config.Config, p Profile) (*Artifact, *BuildCommand, error) {
	name := fmt.Sprintf("%s-%s-windows%s-%s",
		cfg.AppName, cfg.AppVersion, windowsReleaseComponent(p.Release), strings.ToLower(p.Architecture))

	artifact := &Artifact{
		Name:      sanitizeName(name),
		Extension: ExtensionZip,
		OutputDir: cfg.ProjectRoot,
	}

	// The %TEMP% carets keep cmd.exe from expanding the variable at
	// invocation time: the toolchain receives the literal placeholder.
	template := fmt.Sprintf(
		`python -m nuitka `+
			`--standalone --plugin-enable=pyside6 `+
			`--disable-console `+
			`--assume-yes-for-downloads `+
			`--include-package-data=%s `+
			`--windows-icon-from-ico="%s" `+
			`--force-stdout-spec=^%%TEMP^%%/_%s_Enable_Stdout `+
			`--force-stderr-spec=^%%TEMP^%%/_%s_Enable_Stderr `+
			`%s `+
			`--output-dir="%s"`,
		cfg.AppName, cfg.IconPath, cfg.AppName, cfg.AppName, cfg.AppName, cfg.DeployDir())

	return artifact, &BuildCommand{Template: template, OutputDir: cfg.DeployDir()}, nil
}

func resolveMac(cfg *config.Config, p Profile) (*Artifact, *BuildCommand, error) {
	minimumOS := macModernMinimumOS
	if CompareVersions(p.ToolchainVersion, macLegacyRuntimeCeiling) <= 0 {
		minimumOS = macLegacyMinimumOS
	}

	name := fmt.Sprintf("%s-%s-macOS-%s-%s",
		cfg.AppName, cfg.AppVersion, minimumOS, strings.ToLower(p.Architecture))

	artifact := &Artifact{
		Name:      sanitizeName(name),
		Extension: ExtensionDiskImage,
		OutputDir: cfg.ProjectRoot,
	}

	template := fmt.Sprintf(
		`python -m nuitka `+
			`--standalone --plugin-enable=pyside6 `+
			`--disable-console `+
			`--assume-yes-for-downloads `+
			`--include-package-data=%s `+
			`--macos-create-app-bundle `+
			`--macos-app-icon="%s" `+
			`--macos-app-name="%s" `+
			`%s.py `+
			`--output-dir="%s"`,
		cfg.AppName, cfg.IconPath, cfg.AppName, cfg.AppName, cfg.DeployDir())

	return artifact, &BuildCommand{Template: template, OutputDir: cfg.DeployDir()}, nil
}

// RenamedBuildDirName is the canonical directory name the raw standalone
// build is renamed to before compression on Windows. It carries no
// architecture component and pins server editions like the artifact name.
func RenamedBuildDirName(cfg *config.Config, p Profile) string {
	if p.Family != FamilyWindows {
		return ""
	}

	return fmt.Sprintf("%s-%s-windows%s",
		cfg.AppName, cfg.AppVersion, windowsReleaseComponent(p.Release))
}

// IsServerEdition reports whether the release string denotes a Windows
// server edition.
func IsServerEdition(release string) bool {
	return strings.HasSuffix(release, serverReleaseSuffix)
}

func windowsReleaseComponent(release string) string {
	if IsServerEdition(release) {
		return serverPinnedRelease
	}

	return release
}

// CompareVersions compares two dot-separated version strings numerically
// per component, so "6.4.10" sorts after "6.4.3". Missing components
// count as zero. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := 0; i < len(aParts) || i < len(bParts); i++ {
		av := versionComponent(aParts, i)
		bv := versionComponent(bParts, i)

		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}

	return 0
}

func versionComponent(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}

	// Non-numeric components count as zero.
	n, _ := strconv.Atoi(strings.TrimSpace(parts[i]))

	return n
}

// sanitizeName strips characters unsafe in file names from a derived
// artifact name. Release strings come from the host OS and are not
// guaranteed to be path-safe.
func sanitizeName(name string) string {
	safe, err := filenamify.FilenamifyV2(name)
	if err != nil {
		return name
	}

	return safe
}
