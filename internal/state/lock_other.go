//go:build !unix

package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// staleLockThreshold is the age after which an exclusive-create lock
// file is assumed to belong to a crashed process.
const staleLockThreshold = 10 * time.Minute

func dirOf(p string) string { return filepath.Dir(p) }

// acquire creates path exclusively. An existing lock older than
// staleLockThreshold is removed and creation retried once.
func acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !isStale(path) {
			return nil, lockHeld(path)
		}
		os.Remove(path)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, lockHeld(path)
		}
	}

	if err := writeOwner(f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	return &Lock{path: path, file: f}, nil
}

func isStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockThreshold
}

// Release drops the lock by removing the lock file.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
