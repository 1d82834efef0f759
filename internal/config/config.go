package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Asset describes one remotely hosted data file required by the packaged
// application at runtime.
type Asset struct {
	// URL is the HTTP location the file is fetched from.
	URL string `yaml:"url"`
	// Filename is the fixed name the file is saved under in the asset directory.
	Filename string `yaml:"filename"`
}

// Config holds the deployment settings shared by every pipeline stage.
// It is constructed once at process start and passed by value reference
// into each service; nothing mutates it afterwards.
type Config struct {
	// AppName is the name of the desktop application being packaged.
	AppName string `yaml:"app_name"`
	// AppVersion is the release version embedded into artifact names.
	AppVersion string `yaml:"app_version"`
	// ProjectRoot is the directory holding the application sources and
	// receiving the final artifact. Defaults to the working directory.
	ProjectRoot string `yaml:"project_root"`
	// IconPath is the application icon passed to the toolchain and the
	// disk-image builder, relative to ProjectRoot.
	IconPath string `yaml:"icon_path"`
	// ToolchainVersion is the GUI runtime version the application is
	// compiled against. It selects the minimum macOS version tag.
	ToolchainVersion string `yaml:"toolchain_version"`
	// OSRelease optionally overrides the detected OS release string,
	// useful for reproducing CI naming locally.
	OSRelease string `yaml:"os_release"`
	// Architecture optionally overrides the detected CPU architecture.
	Architecture string `yaml:"architecture"`
	// AssetDir is where downloaded data files are stored, relative to ProjectRoot.
	AssetDir string `yaml:"asset_dir"`
	// Assets is the set of data files fetched by the download mode.
	Assets []Asset `yaml:"assets"`
	// StagingDir is the disposable directory used to assemble the disk
	// image, relative to ProjectRoot.
	StagingDir string `yaml:"staging_dir"`
	// BuildTimeout bounds external tool invocations. Zero means no
	// timeout: a hung tool hangs the pipeline, matching the historical
	// behavior this pipeline replaces.
	BuildTimeout time.Duration `yaml:"build_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "shipper-settings.yaml"

	// DefaultAppName is used when no settings file is present.
	DefaultAppName = "Comet"

	// DefaultAppVersion is used when the settings file omits app_version.
	DefaultAppVersion = "1.0.0"

	// DefaultToolchainVersion is the GUI runtime version assumed when not configured.
	DefaultToolchainVersion = "6.5.2"

	// DefaultIconPath is the application icon used by build and packaging commands.
	DefaultIconPath = "icons/comet.png"

	// DefaultAssetDir is where downloaded rules files are stored.
	DefaultAssetDir = "data/xray"

	// DefaultStagingDir is the disposable disk-image staging directory.
	DefaultStagingDir = "app"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// deploySuffix is appended to the application name to form the
	// deployment working directory at the project root.
	deploySuffix = "-Deploy"
)

// DefaultAssets returns the fixed pair of routing-rules data files the
// packaged application ships with: site rules and IP rules.
func DefaultAssets() []Asset {
	return []Asset{
		{
			URL:      "https://github.com/Loyalsoldier/v2ray-rules-dat/releases/latest/download/geosite.dat",
			Filename: "geosite.dat",
		},
		{
			URL:      "https://github.com/Loyalsoldier/v2ray-rules-dat/releases/latest/download/geoip.dat",
			Filename: "geoip.dat",
		},
	}
}

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{}
	// Validate never fails on an empty config: it only fills defaults.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file is not an error: the built-in defaults apply, so the
// pipeline runs without any settings file at all.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	} else if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and checks asset URLs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultAppVersion
	}

	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}

	if cfg.IconPath == "" {
		cfg.IconPath = DefaultIconPath
	}

	if cfg.ToolchainVersion == "" {
		cfg.ToolchainVersion = DefaultToolchainVersion
	}

	if cfg.AssetDir == "" {
		cfg.AssetDir = DefaultAssetDir
	}

	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}

	if cfg.StagingDir == "" {
		cfg.StagingDir = DefaultStagingDir
	}

	for _, asset := range cfg.Assets {
		if asset.Filename == "" {
			return fmt.Errorf("asset %q: missing filename", asset.URL)
		}

		if _, err := url.ParseRequestURI(asset.URL); err != nil {
			return fmt.Errorf("invalid asset URL %q: %w", asset.URL, err)
		}
	}

	return nil
}

// DeployDir returns the deployment working directory holding raw
// toolchain output, e.g. <root>/<AppName>-Deploy.
func (c *Config) DeployDir() string {
	return filepath.Join(c.ProjectRoot, c.AppName+deploySuffix)
}

// AssetPath returns the absolute-ish path of the asset directory.
func (c *Config) AssetPath() string {
	return filepath.Join(c.ProjectRoot, c.AssetDir)
}

// StagingPath returns the disposable disk-image staging directory.
func (c *Config) StagingPath() string {
	return filepath.Join(c.ProjectRoot, c.StagingDir)
}
