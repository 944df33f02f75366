package state

import (
	"fmt"
	"os"
	"time"

	"github.com/samuelstevens/ghrel/internal/errs"
)

// Lock is a held state lock. Release it when the read-modify-write cycle
// is complete.
type Lock struct {
	path string
	file *os.File
}

// Lock acquires the process-wide state lock without blocking. If another
// holder exists the error is errs.LockHeld.
func (s *Store) Lock() (*Lock, error) {
	if err := os.MkdirAll(dirOf(s.LockPath()), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return acquire(s.LockPath())
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

func lockHeld(path string) error {
	return errs.New(errs.LockHeld, "Another ghrel process is running (lock: %s)", path).
		WithPath(path).
		WithHint("Wait for it to finish, or delete %s if stale.", path)
}

// writeOwner records the holder for humans inspecting a stuck lock.
func writeOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return f.Sync()
}
