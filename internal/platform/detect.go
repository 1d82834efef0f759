package platform

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/cometlabs/shipper/internal/config"
	"github.com/cometlabs/shipper/internal/logger"
)

// Detect builds the profile for the current host. Configured overrides
// win over detected values; detection failures fall back to runtime
// information with a warning, never an error.
func Detect(ctx context.Context, cfg *config.Config) Profile {
	p := Profile{
		Family:           FamilyForGOOS(runtime.GOOS),
		Release:          cfg.OSRelease,
		Architecture:     cfg.Architecture,
		ToolchainVersion: cfg.ToolchainVersion,
	}

	if p.Release == "" || p.Architecture == "" {
		info, err := host.InfoWithContext(ctx)
		if err != nil {
			logger.WarnKV(ctx, "Host detection failed, falling back to runtime values", "error", err)
		} else {
			if p.Release == "" {
				p.Release = releaseFromHost(p.Family, info)
			}

			if p.Architecture == "" {
				p.Architecture = info.KernelArch
			}
		}
	}

	if p.Architecture == "" {
		p.Architecture = runtime.GOARCH
	}

	p.Architecture = strings.ToLower(p.Architecture)

	return p
}

func releaseFromHost(family Family, info *host.InfoStat) string {
	if family == FamilyWindows {
		return windowsRelease(info.Platform)
	}

	return info.PlatformVersion
}

// windowsRelease condenses a platform string like
// "Microsoft Windows 10 Pro" into "10", or
// "Microsoft Windows Server 2019 Datacenter" into "2019Server".
func windowsRelease(platform string) string {
	fields := strings.Fields(platform)

	for i, field := range fields {
		if field != serverReleaseSuffix {
			continue
		}

		if i+1 < len(fields) && isNumeric(fields[i+1]) {
			return fields[i+1] + serverReleaseSuffix
		}

		return serverReleaseSuffix
	}

	for _, field := range fields {
		if isNumeric(field) {
			return field
		}
	}

	return platform
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
