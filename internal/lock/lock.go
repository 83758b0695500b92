// Package lock keeps two watch sessions from serving the same root.
//
// Each watched root maps to one lock file under a shared directory. The
// lock is an advisory flock, so it is released by the kernel when the
// holding process dies and stale files never block a new session.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

// FileLock is a non-blocking exclusive lock on one lock file.
type FileLock struct {
	path  string
	flock *flock.Flock
	held  bool
}

// New returns an unheld lock on path. The file is created on first use.
func New(path string) *FileLock {
	return &FileLock{path: path, flock: flock.New(path)}
}

// ForRoot returns the lock of a watch root, kept in dir as
// textindex-<hash of the cleaned absolute root>.lock. Spellings of the same
// root ("/data", "/data/") share one lock.
func ForRoot(dir, root string) (*FileLock, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ierrors.InvalidPath(root)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return New(filepath.Join(dir, "textindex-"+hex.EncodeToString(sum[:8])+".lock")), nil
}

// TryLock takes the lock if nobody holds it. It reports false, with a nil
// error, when another session has it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, ierrors.New(ierrors.ErrCodeFilePermission, "create lock directory", err).
			WithDetail("path", filepath.Dir(l.path))
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, ierrors.WatchError(ierrors.ErrCodeWatchFailed, "acquire lock", err).
			WithDetail("path", l.path)
	}
	l.held = ok
	return ok, nil
}

// Unlock releases a held lock. Unlocking an unheld lock does nothing.
func (l *FileLock) Unlock() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := l.flock.Unlock(); err != nil {
		return ierrors.WatchError(ierrors.ErrCodeWatchFailed, "release lock", err).
			WithDetail("path", l.path)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }

// Held reports whether this FileLock holds the lock.
func (l *FileLock) Held() bool { return l.held }
