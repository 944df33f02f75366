package platform

import (
	"strings"

	"github.com/samuelstevens/ghrel/internal/errs"
)

var osAliases = map[string][]string{
	Darwin: {"darwin", "macos", "mac", "osx"},
	Linux:  {"linux"},
}

var archAliases = map[string][]string{
	ARM64:  {"arm64", "aarch64"},
	X86_64: {"x86_64", "amd64", "x64"},
}

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
}

// OSAliases returns the lower-case tokens that may name os in an asset
// filename. Unknown values yield nil.
func OSAliases(os string) []string {
	return append([]string(nil), osAliases[os]...)
}

// ArchAliases returns the lower-case tokens that may name arch in an asset
// filename. Unknown values yield nil.
func ArchAliases(arch string) []string {
	return append([]string(nil), archAliases[arch]...)
}

// normalizeOS maps GOOS to a canonical OS token.
func normalizeOS(goos string) (string, error) {
	switch goos {
	case "darwin":
		return Darwin, nil
	case "linux":
		return Linux, nil
	default:
		return "", unsupported("operating system", goos)
	}
}

// normalizeArch maps GOARCH (or uname-style names) to a canonical arch token.
func normalizeArch(arch string) (string, error) {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64", "x64":
		return X86_64, nil
	case "arm64", "aarch64":
		return ARM64, nil
	default:
		return "", unsupported("architecture", arch)
	}
}

func unsupported(what, value string) error {
	return errs.New(errs.ConfigInvalid, "Unsupported %s: %s", what, value).
		WithHint("ghrel supports macOS and Linux on x86_64/arm64 only.")
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
