package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samuelstevens/ghrel/internal/hooks"
)

// PatternSpec is a value that may be given once for every platform or
// per platform key ("linux-x86_64", "darwin-arm64", ...).
//
// The zero value means "not set". A non-nil ByPlatform (even if empty)
// means the user wrote a mapping.
type PatternSpec struct {
	Literal    string
	ByPlatform map[string]string
}

// IsSet reports whether any pattern was configured.
func (p PatternSpec) IsSet() bool {
	return p.Literal != "" || p.ByPlatform != nil
}

// IsMapping reports whether the pattern is given per platform.
func (p PatternSpec) IsMapping() bool {
	return p.ByPlatform != nil
}

// Keys returns the platform keys of a mapping, sorted.
func (p PatternSpec) Keys() []string {
	keys := make([]string, 0, len(p.ByPlatform))
	for k := range p.ByPlatform {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a pattern for status output.
func (p PatternSpec) String() string {
	if !p.IsMapping() {
		return p.Literal
	}
	parts := make([]string, 0, len(p.ByPlatform))
	for _, k := range p.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, p.ByPlatform[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SignatureSpec requests detached OpenPGP verification of the asset.
type SignatureSpec struct {
	// Asset is a glob selecting the signature asset in the same release.
	Asset string
	// Keyring is the path to an armored or binary public keyring.
	Keyring string
}

// PackageConfig is one validated package descriptor.
type PackageConfig struct {
	Name      string // file stem
	Repo      string // "owner/repo"
	Archive   bool
	Binary    PatternSpec
	InstallAs string
	Asset     PatternSpec
	Version   string // pinned tag; empty means latest

	// Checksums is a glob selecting a checksums asset in the same release.
	Checksums string
	Signature *SignatureSpec

	PostInstall *hooks.Spec
	Verify      *hooks.Spec

	Path string // absolute path of the descriptor file
}
