// Package platform describes the machine ghrel installs binaries for.
//
// It reduces runtime.GOOS/GOARCH to the canonical tokens used when matching
// release asset names ("linux"/"darwin", "x86_64"/"arm64"), exposes the alias
// lists that appear in real asset names, and builds the "os-arch" platform
// key used by per-platform asset and binary mappings. On Linux it also
// records distribution details from gopsutil, which hooks can read through
// the Lua platform table.
package platform

import "context"

// Canonical operating systems.
const (
	Darwin = "darwin"
	Linux  = "linux"
)

// Canonical architectures.
const (
	X86_64 = "x86_64"
	ARM64  = "arm64"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux" or "darwin"
	Arch     string // "x86_64" or "arm64" (canonical)
	ArchRaw  string // original GOARCH (e.g., "amd64")
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Key returns the platform key used by per-platform mappings,
// e.g. "linux-x86_64" or "darwin-arm64".
func (i *Info) Key() string {
	return i.OS + "-" + i.Arch
}

// OSAliases returns the tokens that identify this OS in asset names.
func (i *Info) OSAliases() []string {
	return OSAliases(i.OS)
}

// ArchAliases returns the tokens that identify this architecture in asset names.
func (i *Info) ArchAliases() []string {
	return ArchAliases(i.Arch)
}

// Distro contains Linux distribution information.
// This is nil on non-Linux platforms.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != Linux || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == Linux
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == Darwin
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == ARM64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always reports the same Info.
// It is used when the platform is fixed by the caller, typically in tests.
type Static struct {
	Info Info
}

// Detect returns a copy of the configured Info.
func (s Static) Detect(ctx context.Context) (*Info, error) {
	info := s.Info
	return &info, nil
}
