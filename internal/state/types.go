// Package state persists what ghrel has installed.
//
// The state file is a single JSON document mapping package names to the
// installed version, binary checksum, install time and binary path. Reads
// are validated against an embedded JSON schema; writes go through a temp
// file and an atomic rename so readers never see a partial document. A
// cross-process advisory lock guards each read-modify-write cycle.
package state

import (
	"path/filepath"
	"sort"
)

const (
	// FileName is the state document's name inside the state directory.
	FileName = "state.json"
	// LockSuffix is appended to the state file path to form the lock path.
	LockSuffix = ".lock"
)

// PackageState records one installed package.
type PackageState struct {
	Version     string `json:"version"`
	Checksum    string `json:"checksum"`
	InstalledAt string `json:"installed_at"`
	BinaryPath  string `json:"binary_path"`
}

// State is the full state document.
type State struct {
	Packages map[string]PackageState `json:"packages"`
}

// New returns an empty state.
func New() *State {
	return &State{Packages: map[string]PackageState{}}
}

// Get returns the recorded state for name, or nil.
func (s *State) Get(name string) *PackageState {
	ps, ok := s.Packages[name]
	if !ok {
		return nil
	}
	return &ps
}

// Set records ps for name, normalizing its binary path.
func (s *State) Set(name string, ps PackageState) {
	if s.Packages == nil {
		s.Packages = map[string]PackageState{}
	}
	ps.BinaryPath = normalizePath(ps.BinaryPath)
	s.Packages[name] = ps
}

// Delete drops name from the state.
func (s *State) Delete(name string) {
	delete(s.Packages, name)
}

// Names returns the recorded package names, sorted.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Packages))
	for n := range s.Packages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// normalizePath makes p absolute and clean. Paths that cannot be made
// absolute are only cleaned.
func normalizePath(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
