package csvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// locksDirName is the subdirectory next to the tables that holds their
// lock files: <dir>/.locks/<table file>.lock.
const locksDirName = ".locks"

// LockTimeout is how long [Store.Update] waits for another writer.
const LockTimeout = 2 * time.Second

// ErrLockTimeout is returned when another writer holds a table longer than
// the store's lock timeout.
var ErrLockTimeout = errors.New("lock timeout")

// tableLock is an exclusive flock on a table's lock file.
type tableLock struct {
	path string
	file *os.File
}

// lockTable blocks until it holds the lock for the table at path, or until
// timeout passes.
//
// Lock files are removed on unlock. A writer that opened the file before the
// removal may then hold a lock on an orphaned inode, so every acquired lock
// is checked against the file currently at the lock path and retried when
// they differ.
func lockTable(path string, timeout time.Duration) (*tableLock, error) {
	lockPath := filepath.Join(filepath.Dir(path), locksDirName, filepath.Base(path)+".lock")
	deadline := time.Now().Add(timeout)

	err := os.MkdirAll(filepath.Dir(lockPath), dirPerms)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	for {
		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}

		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}

		err = flockWithin(file, wait)
		if err != nil {
			_ = file.Close()

			if errors.Is(err, ErrLockTimeout) {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
			}

			return nil, fmt.Errorf("lock %s: %w", path, err)
		}

		if !isCurrent(file, lockPath) {
			_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()

			continue
		}

		return &tableLock{path: lockPath, file: file}, nil
	}
}

// flockWithin takes an exclusive flock on file, giving up after wait.
// On timeout the caller closes file, which drops a flock granted late.
func flockWithin(file *os.File, wait time.Duration) error {
	fd := int(file.Fd())
	done := make(chan error, 1)

	go func() {
		done <- unix.Flock(fd, unix.LOCK_EX)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(wait):
		return ErrLockTimeout
	}
}

// isCurrent reports whether file is still the one linked at path.
func isCurrent(file *os.File, path string) bool {
	var held, linked unix.Stat_t

	if unix.Fstat(int(file.Fd()), &held) != nil {
		return false
	}

	if unix.Stat(path, &linked) != nil {
		return false
	}

	return held.Dev == linked.Dev && held.Ino == linked.Ino
}

// unlock removes the lock file while still holding it, then releases it.
func (l *tableLock) unlock() {
	if l.file == nil {
		return
	}

	_ = os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
