package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
)

// Options are inputs accepted by the download entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// ErrDownloadsFailed reports that at least one asset download failed.
// Individual failures are logged where they happen.
var ErrDownloadsFailed = errors.New("one or more asset downloads failed")

// assetDirPermissions is used when creating the asset directory.
const assetDirPermissions = 0o755

// Run downloads every configured asset. Every task is attempted even
// after a failure; the aggregate result decides the process exit code.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "assets")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if !fetchAll(ctx, cfg) {
		return ErrDownloadsFailed
	}

	logger.InfoKV(ctx, "All assets downloaded", "dir", cfg.AssetPath())

	return nil
}

// fetchAll attempts every task and returns true only if all succeeded.
// There is deliberately no short-circuit: a failed task must not stop
// the remaining downloads.
func fetchAll(ctx context.Context, cfg *config.Config) bool {
	ok := true

	for _, asset := range cfg.Assets {
		if !fetchOne(ctx, cfg.AssetPath(), asset) {
			ok = false
		}
	}

	return ok
}

// fetchOne downloads a single asset, overwriting any prior file.
// Failures are logged and reported via the return value, never
// propagated as a fatal error.
func fetchOne(ctx context.Context, dir string, asset config.Asset) bool {
	if err := os.MkdirAll(dir, assetDirPermissions); err != nil {
		logger.ErrorKV(ctx, "Failed to create asset directory", "dir", dir, "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, http.NoBody)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to build request", "url", asset.URL, "error", err)
		return false
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.ErrorKV(ctx, "Download failed", "url", asset.URL, "error", err)
		return false
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		logger.ErrorKV(ctx, "Download failed",
			"url", asset.URL, "status_code", response.StatusCode)

		return false
	}

	destination := filepath.Join(dir, asset.Filename)

	file, err := os.Create(filepath.Clean(destination))
	if err != nil {
		logger.ErrorKV(ctx, "Failed to create asset file", "path", destination, "error", err)
		return false
	}

	_, err = io.Copy(file, response.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		logger.ErrorKV(ctx, "Failed to write asset file", "path", destination, "error", err)
		return false
	}

	logger.InfoKV(ctx, "Asset downloaded", "path", destination)

	return true
}
