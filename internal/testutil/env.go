// Package testutil provides utilities for testing ghrel in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Home        string
	BinDir      string
	PackagesDir string
	StateDir    string
}

// SetupTestEnv points HOME, the XDG roots and every GHREL_* setting at a
// fresh temp directory so tests never touch the user's binaries, package
// descriptors or state. GITHUB_TOKEN is cleared and the token warning
// silenced.
//
// The cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	home := t.TempDir()
	env := Env{
		Home:        home,
		BinDir:      filepath.Join(home, "bin"),
		PackagesDir: filepath.Join(home, "packages"),
		StateDir:    filepath.Join(home, "state"),
	}

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))

	t.Setenv("GHREL_BIN", env.BinDir)
	t.Setenv("GHREL_PACKAGES_DIR", env.PackagesDir)
	t.Setenv("GHREL_STATE_DIR", env.StateDir)
	t.Setenv("GHREL_CONFIG", "")
	t.Setenv("GHREL_API_URL", "")
	t.Setenv("GHREL_SKIP_CHECKSUM_DRIFT", "")
	t.Setenv("GHREL_NO_TOKEN_WARNING", "1")
	t.Setenv("GITHUB_TOKEN", "")

	if err := os.MkdirAll(env.PackagesDir, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", env.PackagesDir, err)
	}
	return env
}

// WriteDescriptor writes a package descriptor into the packages directory.
func (e Env) WriteDescriptor(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.PackagesDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write descriptor %s: %v", path, err)
	}
	return path
}
