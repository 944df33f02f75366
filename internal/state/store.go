package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/logging"
)

// Store reads and writes the state file in one directory.
type Store struct {
	path   string
	logger logging.Logger
}

// NewStore returns a store for <dir>/state.json.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{path: filepath.Join(dir, FileName), logger: logging.OrNop(logger)}
}

// Path returns the state file path.
func (s *Store) Path() string { return s.path }

// LockPath returns the lock file path.
func (s *Store) LockPath() string { return s.path + LockSuffix }

func (s *Store) corrupt(cause error, pkg, format string, args ...any) *errs.Error {
	e := errs.Wrap(errs.StateCorrupt, cause, format, args...).
		WithPath(s.path).
		WithHint("Check %s for errors, or delete it to reset state.", s.path)
	if pkg != "" {
		e = e.WithPackage(pkg)
	}
	return e
}

// Read loads the state. A missing file yields an empty state; a malformed
// document, or an entry missing a required field, is errs.StateCorrupt.
func (s *Store) Read() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, s.corrupt(err, "", "Invalid JSON in state file %s: %v", s.path, err)
	}

	if pkg, msg, bad := schemaProblem(raw); bad {
		if pkg != "" {
			return nil, s.corrupt(nil, pkg, "Invalid entry for package '%s' in %s: %s", pkg, s.path, msg)
		}
		return nil, s.corrupt(nil, "", "Invalid state file %s: %s", s.path, msg)
	}

	var doc State
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, s.corrupt(err, "", "Invalid state file %s: %v", s.path, err)
	}

	st := New()
	for name, ps := range doc.Packages {
		ps.BinaryPath = filepath.Clean(ps.BinaryPath)
		st.Packages[name] = ps
	}
	return st, nil
}

// Write persists st atomically: temp file in the same directory, fsync,
// rename over the state file, then fsync the directory.
func (s *Store) Write(st *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	doc := State{Packages: make(map[string]PackageState, len(st.Packages))}
	for name, ps := range st.Packages {
		ps.BinaryPath = normalizePath(ps.BinaryPath)
		doc.Packages[name] = ps
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temporary state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}

	if df, err := os.Open(dir); err == nil {
		syncErr := df.Sync()
		df.Close()
		if syncErr != nil {
			return fmt.Errorf("sync state directory: %w", syncErr)
		}
	}

	s.logger.Debug("wrote state", "path", s.path, "packages", len(doc.Packages))
	return nil
}

// Pruned describes an orphaned entry removed (or that would be removed)
// by Prune.
type Pruned struct {
	Name    string
	Version string
	Path    string
	// Missing is set when the binary was already gone.
	Missing bool
}

// Prune removes every entry of st whose name is not in declared: the
// binary is deleted if present, the entry dropped and the state written.
// With dryRun nothing is changed. The caller must hold the lock.
func (s *Store) Prune(st *State, declared map[string]bool, dryRun bool) ([]Pruned, error) {
	var pruned []Pruned
	for _, name := range st.Names() {
		if declared[name] {
			continue
		}
		ps := st.Packages[name]
		p := Pruned{Name: name, Version: ps.Version, Path: ps.BinaryPath}
		if dryRun {
			pruned = append(pruned, p)
			continue
		}

		if err := os.Remove(ps.BinaryPath); os.IsNotExist(err) {
			p.Missing = true
		} else if err != nil {
			return pruned, fmt.Errorf("remove %s: %w", ps.BinaryPath, err)
		}
		st.Delete(name)
		if err := s.Write(st); err != nil {
			return pruned, err
		}
		s.logger.Info("pruned package", "package", name, "path", ps.BinaryPath)
		pruned = append(pruned, p)
	}
	return pruned, nil
}
