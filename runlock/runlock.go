// Package runlock provides the exclusive-access scope around a
// reconciliation run. Two overlapping runs against the same persisted record
// sets would silently lose whichever write lands second, so a run acquires
// the lock before scraping and releases it after the last write.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrLocked is returned when another run already holds the lock.
var ErrLocked = errors.New("another run holds the lock")

// Lock is the exclusive-access scope: acquire before reconcile, release
// after the last write.
type Lock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// FileLock implements Lock with an exclusively-created lock file on local
// disk. A leftover file older than TTL is treated as stale (a crashed run)
// and broken.
type FileLock struct {
	Path string
	TTL  time.Duration
}

// NewFileLock creates a file-based lock.
func NewFileLock(path string, ttl time.Duration) *FileLock {
	return &FileLock{Path: path, TTL: ttl}
}

// Acquire creates the lock file, breaking a stale one first.
func (l *FileLock) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if info, err := os.Stat(l.Path); err == nil {
		if time.Since(info.ModTime()) < l.TTL {
			return ErrLocked
		}
		if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("runlock: break stale lock: %w", err)
		}
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrLocked
		}
		return fmt.Errorf("runlock: create lock file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if err != nil {
		return fmt.Errorf("runlock: write lock file: %w", err)
	}
	return nil
}

// Release removes the lock file.
func (l *FileLock) Release(ctx context.Context) error {
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runlock: remove lock file: %w", err)
	}
	return nil
}
