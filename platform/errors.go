// Package platform provides a uniform surface over shared memory, advisory
// file locks, clocks, process-shared synchronization primitives, and
// sockets across POSIX platforms, per spec.md §4.A. All operations are
// non-allocating on the hot path; the error-translation path below is the
// one place allowed to allocate, since it only runs on failure.
package platform

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iceoryx2/errs"
)

// Translate maps a platform error (typically a *os.PathError or
// unix.Errno) into the common taxonomy from errs, so callers above this
// package never branch on syscall.Errno directly.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return fmt.Errorf("platform: %s: %w", op, translateErrno(errno))
	}
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("platform: %s: %w", op, errs.ErrNotFound)
	}
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("platform: %s: %w", op, errs.ErrAlreadyExists)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("platform: %s: %w", op, errs.ErrPermissionDenied)
	}
	return fmt.Errorf("platform: %s: %w: %w", op, errs.ErrUnknownPlatform, err)
}

func translateErrno(errno unix.Errno) error {
	switch errno {
	case unix.ENOENT:
		return errs.ErrNotFound
	case unix.EEXIST:
		return errs.ErrAlreadyExists
	case unix.EACCES, unix.EPERM:
		return errs.ErrPermissionDenied
	case unix.EINTR:
		return errs.ErrInterrupted
	case unix.ENOMEM, unix.ENOSPC, unix.EMFILE, unix.ENFILE:
		return errs.ErrOutOfResources
	default:
		return errs.ErrUnknownPlatform
	}
}
