package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using the running process's platform.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a detector for the current process.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect returns the canonical OS and architecture, failing on anything
// other than macOS or Linux on x86_64/arm64.
//
// On Linux, distribution details come from gopsutil. If that lookup fails
// the distro fields stay empty and detection still succeeds; only context
// cancellation is treated as a hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	os, err := normalizeOS(d.goos)
	if err != nil {
		return nil, err
	}
	arch, err := normalizeArch(d.goarch)
	if err != nil {
		return nil, err
	}
	info := &Info{OS: os, Arch: arch, ArchRaw: d.goarch}

	if os != Linux {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}
	return info, nil
}
