// Package plan decides what to do for each declared package.
//
// Decide is a pure decision table over the recorded state, the desired
// version and the computed install path. Filesystem checks go through a
// Probe so the table can be tested without touching disk. Resolve wires
// the release lookup and asset selection in front of Decide.
package plan

import (
	"fmt"
	"path/filepath"

	"github.com/samuelstevens/ghrel/internal/state"
)

// ActionKind is what sync will do for a package.
type ActionKind string

const (
	Install   ActionKind = "install"
	Update    ActionKind = "update"
	Reinstall ActionKind = "reinstall"
	UpToDate  ActionKind = "up_to_date"
)

// Reason explains a Reinstall.
type Reason string

const (
	NoReason          Reason = ""
	BinaryPathChanged Reason = "binary_path_changed"
	BinaryMissing     Reason = "binary_missing"
	ChecksumMismatch  Reason = "checksum_mismatch"
)

// Action is the decision for one package.
type Action struct {
	Kind   ActionKind
	Reason Reason
}

func (a Action) String() string {
	if a.Reason == NoReason {
		return string(a.Kind)
	}
	return fmt.Sprintf("%s (%s)", a.Kind, a.Reason)
}

// NeedsInstall reports whether the action downloads and installs.
func (a Action) NeedsInstall() bool {
	return a.Kind != UpToDate
}

// Probe inspects the recorded binary on disk.
type Probe interface {
	Exists(path string) bool
	Checksum(path string) (string, error)
}

// Policy tunes the drift checks.
type Policy struct {
	// VerifyChecksums recomputes the installed binary's checksum for
	// packages whose version and path already match.
	VerifyChecksums bool
}

// DefaultPolicy checks checksums on every run.
func DefaultPolicy() Policy {
	return Policy{VerifyChecksums: true}
}

// Decide evaluates, in order:
//
//  1. no recorded state: install
//  2. recorded path differs from targetPath: reinstall, binary_path_changed
//  3. recorded version differs from desiredVersion: update
//  4. recorded binary missing: reinstall, binary_missing
//  5. recorded binary's checksum differs: reinstall, checksum_mismatch
//  6. otherwise: up to date
//
// Rule 5 is skipped when policy.VerifyChecksums is false.
func Decide(current *state.PackageState, desiredVersion, targetPath string, probe Probe, policy Policy) (Action, error) {
	if current == nil {
		return Action{Kind: Install}, nil
	}
	if filepath.Clean(current.BinaryPath) != filepath.Clean(targetPath) {
		return Action{Kind: Reinstall, Reason: BinaryPathChanged}, nil
	}
	if current.Version != desiredVersion {
		return Action{Kind: Update}, nil
	}
	if !probe.Exists(current.BinaryPath) {
		return Action{Kind: Reinstall, Reason: BinaryMissing}, nil
	}
	if policy.VerifyChecksums {
		sum, err := probe.Checksum(current.BinaryPath)
		if err != nil {
			return Action{}, fmt.Errorf("checksum installed binary: %w", err)
		}
		if sum != current.Checksum {
			return Action{Kind: Reinstall, Reason: ChecksumMismatch}, nil
		}
	}
	return Action{Kind: UpToDate}, nil
}
