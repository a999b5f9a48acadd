// Package runlock serializes report runs on one host so two invocations never
// drive the report tool or scan the working directory at the same time.
package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"rptninja/internal/services"
)

// Lock is a held run lock.
type Lock struct {
	lock *flock.Flock
}

// Acquire blocks until the lock at path is held or ctx is done, polling every retry.
func Acquire(ctx context.Context, path string, retry time.Duration) (*Lock, error) {
	fl, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	if retry <= 0 {
		retry = 500 * time.Millisecond
	}
	ok, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, services.ErrLocked)
	}
	return &Lock{lock: fl}, nil
}

// TryAcquire takes the lock without waiting. It returns services.ErrLocked when
// another run holds it.
func TryAcquire(path string) (*Lock, error) {
	fl, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another rptninja run is in progress (%s): %w", path, services.ErrLocked)
	}
	return &Lock{lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil || l.lock == nil {
		return ""
	}
	return l.lock.Path()
}

// Release unlocks the run lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

func newFlock(path string) (*flock.Flock, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "", "lock path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return flock.New(path), nil
}
