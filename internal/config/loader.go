package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/logging"
)

// Loader reads package descriptors from a directory.
type Loader struct {
	dir    string
	logger logging.Logger
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, logger logging.Logger) *Loader {
	return &Loader{dir: dir, logger: logging.OrNop(logger)}
}

// Dir returns the packages directory.
func (l *Loader) Dir() string { return l.dir }

// descriptorFiles maps package name to descriptor path. Two descriptors
// for the same name are an error.
func (l *Loader) descriptorFiles() (map[string]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	files := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !isDescriptorExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		path := filepath.Join(l.dir, e.Name())
		if prev, dup := files[name]; dup {
			return nil, errs.New(errs.ConfigInvalid, "Duplicate package '%s': %s and %s", name, filepath.Base(prev), e.Name()).
				WithPath(path).
				WithHint("Keep only one descriptor per package.")
		}
		files[name] = path
	}
	return files, nil
}

func isDescriptorExt(ext string) bool {
	for _, e := range descriptorExts {
		if e == ext {
			return true
		}
	}
	return false
}

// Names lists declared package names without parsing descriptors. A
// missing directory declares nothing.
func (l *Loader) Names() (map[string]bool, error) {
	files, err := l.descriptorFiles()
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	names := make(map[string]bool, len(files))
	for n := range files {
		names[n] = true
	}
	return names, nil
}

// CheckDir fails with errs.ConfigInvalid when the packages directory is
// missing.
func (l *Loader) CheckDir() error {
	if info, err := os.Stat(l.dir); err != nil || !info.IsDir() {
		return errs.New(errs.ConfigInvalid, "Packages directory does not exist: %s", l.dir).
			WithPath(l.dir).
			WithHint("Create it with: mkdir -p %s", l.dir)
	}
	return nil
}

// Load parses every descriptor. The directory must exist.
func (l *Loader) Load() (map[string]*PackageConfig, error) {
	if err := l.CheckDir(); err != nil {
		return nil, err
	}

	files, err := l.descriptorFiles()
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, fmt.Errorf("list packages: %w", err)
	}

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	pkgs := make(map[string]*PackageConfig, len(files))
	for _, name := range names {
		pkg, err := l.LoadFile(files[name])
		if err != nil {
			return nil, err
		}
		pkgs[name] = pkg
	}
	l.logger.Debug("loaded packages", "dir", l.dir, "count", len(pkgs))
	return pkgs, nil
}

// LoadFile parses one descriptor and logs any hardcoded secrets it holds.
func (l *Loader) LoadFile(path string) (*PackageConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, err, "Cannot read package file %s: %v", abs, err).WithPath(abs)
	}

	for _, f := range FindSecrets(string(data)) {
		l.logger.Warn("possible secret in package file",
			"path", abs, "line", f.Line, "kind", f.Kind, "preview", f.Preview)
	}

	return ParseDescriptor(abs, data)
}
