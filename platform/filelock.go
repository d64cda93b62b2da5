package platform

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iceoryx2/errs"
)

// LockMode selects shared vs exclusive advisory locking.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// FileLock is an advisory lock on an open file descriptor, held for as
// long as the descriptor stays open — exactly the mechanism
// monitor.Monitor relies on: the OS releases the lock automatically if
// the holding process dies, with no cleanup code required.
type FileLock struct {
	f *os.File
}

// OpenFileLock opens (creating if needed) the file at path for locking,
// without acquiring any lock yet.
func OpenFileLock(path string, perm os.FileMode) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, perm)
	if err != nil {
		return nil, Translate("filelock.open", err)
	}
	return &FileLock{f: f}, nil
}

// TryLock attempts to acquire the lock without blocking. Returns
// errs.ErrWouldBlock if another process holds it.
func (l *FileLock) TryLock(mode LockMode) error {
	how := unix.LOCK_EX | unix.LOCK_NB
	if mode == LockShared {
		how = unix.LOCK_SH | unix.LOCK_NB
	}
	if err := unix.Flock(int(l.f.Fd()), how); err != nil {
		if err == unix.EWOULDBLOCK {
			return errs.ErrWouldBlock
		}
		return Translate("filelock.trylock", err)
	}
	return nil
}

// Lock blocks until the lock is acquired or deadline elapses.
// A zero deadline blocks indefinitely.
func (l *FileLock) Lock(mode LockMode, deadline time.Duration) error {
	if deadline <= 0 {
		how := unix.LOCK_EX
		if mode == LockShared {
			how = unix.LOCK_SH
		}
		if err := unix.Flock(int(l.f.Fd()), how); err != nil {
			return Translate("filelock.lock", err)
		}
		return nil
	}
	deadlineAt := time.Now().Add(deadline)
	for {
		err := l.TryLock(mode)
		if err == nil {
			return nil
		}
		if err != errs.ErrWouldBlock {
			return err
		}
		if time.Now().After(deadlineAt) {
			return errs.ErrTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// Unlock releases the lock without closing the descriptor.
func (l *FileLock) Unlock() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		return Translate("filelock.unlock", err)
	}
	return nil
}

// IsLocked performs a non-blocking probe: it attempts an exclusive lock
// and, if that succeeds, immediately releases it. Returns true if the
// lock is held by someone else (the probe would block), used by
// monitor.Query to detect liveness without keeping the lock itself.
func (l *FileLock) IsLocked() bool {
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return true
	}
	if err == nil {
		_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	}
	return false
}

// Chmod changes the backing file's permissions — used for the monitor's
// init-only → final permission flip (spec.md §4.J).
func (l *FileLock) Chmod(perm os.FileMode) error {
	return Translate("filelock.chmod", l.f.Chmod(perm))
}

// Close closes the underlying descriptor, releasing any lock it held.
func (l *FileLock) Close() error {
	return Translate("filelock.close", l.f.Close())
}

// Path returns the path of the file backing this lock.
func (l *FileLock) Path() string {
	return l.f.Name()
}
