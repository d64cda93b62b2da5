package monitor

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iceoryx2/platform"
)

// State is a node's observed liveness, per spec.md §4.J / §6 "Monitor
// state values".
type State int

const (
	DoesNotExist State = iota
	InInitialization
	Alive
	Dead
)

func (s State) String() string {
	switch s {
	case DoesNotExist:
		return "DoesNotExist"
	case InInitialization:
		return "InInitialization"
	case Alive:
		return "Alive"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// initPerm and finalPerm mirror the original implementation's
// OWNER_WRITE / OWNER_ALL distinction: a lock-file still carrying
// initPerm has not finished its creator's creation protocol.
const (
	initPerm  os.FileMode = 0o200
	finalPerm os.FileMode = 0o700
)

func nodePath(root, nodeID string) string {
	return filepath.Join(root, "nodes", nodeID+".node")
}

// Monitor is held by the node process that owns it for its entire
// lifetime: the exclusive lock it took during Create is released only
// by process exit (orderly, via Shutdown, or by crash, via the OS).
type Monitor struct {
	lock *platform.FileLock
	path string
}

// Create runs the node creation protocol: create the lock-file
// exclusively with init-only permissions, take the exclusive lock,
// then flip to final permissions. Returns errs.ErrAlreadyExists if
// nodeID is taken.
func Create(root, nodeID string) (*Monitor, error) {
	path := nodePath(root, nodeID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, platform.Translate("monitor.mkdir", err)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, uint32(initPerm))
	if err != nil {
		return nil, platform.Translate("monitor.create", err)
	}
	unix.Close(fd)

	lock, err := platform.OpenFileLock(path, initPerm)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if err := lock.TryLock(platform.LockExclusive); err != nil {
		_ = lock.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := lock.Chmod(finalPerm); err != nil {
		_ = lock.Close()
		return nil, err
	}

	return &Monitor{lock: lock, path: path}, nil
}

// Shutdown performs orderly cleanup: removes the lock-file while still
// holding the lock, then releases it.
func (m *Monitor) Shutdown() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return platform.Translate("monitor.remove", err)
	}
	if err := m.lock.Unlock(); err != nil {
		return err
	}
	return m.lock.Close()
}

// Query inspects nodeID's lock-file from any process, classifying it
// into one of the four monitor states without contacting the owning
// process. initTimeout bounds how long a file may sit with init-only
// permissions and no lock before it is declared Dead instead of
// InInitialization (its creator crashed between file creation and
// lock acquisition).
func Query(root, nodeID string, initTimeout time.Duration) (State, error) {
	path := nodePath(root, nodeID)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DoesNotExist, nil
		}
		return DoesNotExist, platform.Translate("monitor.stat", err)
	}

	lock, err := platform.OpenFileLock(path, 0o600)
	if err != nil {
		return DoesNotExist, err
	}
	defer lock.Close()

	if lock.IsLocked() {
		return Alive, nil
	}

	// Not locked: either the creator crashed before or during
	// initialization, or the owner exited without removing the file.
	if info.Mode().Perm() == initPerm {
		if time.Since(info.ModTime()) > initTimeout {
			return Dead, nil
		}
		return InInitialization, nil
	}
	return Dead, nil
}

// Cleanup removes a node's lock-file, used by the registry's dead-node
// sweep once no endpoint references the node.
func Cleanup(root, nodeID string) error {
	if err := os.Remove(nodePath(root, nodeID)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return platform.Translate("monitor.cleanup", err)
	}
	return nil
}
