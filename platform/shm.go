package platform

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SharedMemory is a mapped POSIX shared-memory object. The zero value is
// not usable; construct with CreateSharedMemory or OpenSharedMemory.
//
// Grounded on original_source/iceoryx2-cal/src/shared_memory/posix.rs: a
// named backing file under a shm directory, created with O_EXCL to make
// create/open races observable as AlreadyExists, then sized with
// Ftruncate and mapped with Mmap.
type SharedMemory struct {
	name  string
	path  string
	data  []byte
	owner bool // whether Close removes the backing object
}

// shmPath places SharedMemory objects under root's "shm" directory. POSIX
// shm_open conventionally uses /dev/shm; this module uses a plain file
// under the configured root instead of shm_open(3) itself, since the
// Go standard toolchain exposes no shm_open wrapper and one is not part
// of golang.org/x/sys/unix on every supported GOOS — a plain O_EXCL file
// gives the same create-race semantics spec.md §4.A asks for.
func shmPath(root, name string) string {
	return filepath.Join(root, "shm", name)
}

// CreateSharedMemory creates a new named shared-memory region of the given
// size, zeroed, with permissions perm. Fails with errs.ErrAlreadyExists if
// the name is already taken. The returned SharedMemory does not own the
// object: Close leaves the backing file in place unless SetOwner(true)
// was called.
func CreateSharedMemory(root, name string, size int, perm os.FileMode, zeroInit bool) (*SharedMemory, error) {
	path := shmPath(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, Translate("shm.mkdir", err)
	}
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, uint32(perm))
	if err != nil {
		return nil, Translate("shm.create", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Unlink(path)
		return nil, Translate("shm.truncate", err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Unlink(path)
		return nil, Translate("shm.mmap", err)
	}
	if zeroInit {
		clear(data)
	}
	return &SharedMemory{name: name, path: path, data: data, owner: false}, nil
}

// OpenSharedMemory maps an existing shared-memory region of the given
// size. Fails with errs.ErrNotFound if the name has not been created. It
// does not tell whether the creator has finished initializing the region
// (see dynamicstorage for the two-phase protocol layered on top of this).
func OpenSharedMemory(root, name string, size int) (*SharedMemory, error) {
	path := shmPath(root, name)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, Translate("shm.open", err)
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, Translate("shm.mmap", err)
	}
	return &SharedMemory{name: name, path: path, data: data, owner: false}, nil
}

// Bytes returns the mapped region. The returned slice aliases the mapping;
// callers must not retain it past Close.
func (s *SharedMemory) Bytes() []byte {
	return s.data
}

// Name returns the shared-memory object's name.
func (s *SharedMemory) Name() string {
	return s.name
}

// SetOwner marks whether Close should also remove the backing object.
func (s *SharedMemory) SetOwner(owner bool) {
	s.owner = owner
}

// Close unmaps the region and, if this SharedMemory owns the object,
// removes the backing file.
func (s *SharedMemory) Close() error {
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return Translate("shm.munmap", err)
		}
		s.data = nil
	}
	if s.owner {
		if err := unix.Unlink(s.path); err != nil {
			return Translate("shm.unlink", err)
		}
	}
	return nil
}

// RemoveSharedMemory removes a named shared-memory object without mapping
// it first, used by dynamicstorage.Remove (and so by registry.Remove).
func RemoveSharedMemory(root, name string) error {
	if err := unix.Unlink(shmPath(root, name)); err != nil {
		return Translate("shm.remove", err)
	}
	return nil
}

// ListSharedMemory returns the names of shared-memory objects under root
// whose name matches prefix/suffix — used by dynamicstorage.List.
func ListSharedMemory(root, prefix, suffix string) ([]string, error) {
	dir := filepath.Join(root, "shm")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, Translate("shm.list", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if len(n) >= len(prefix)+len(suffix) && hasAffixes(n, prefix, suffix) {
			names = append(names, n)
		}
	}
	return names, nil
}

func hasAffixes(s, prefix, suffix string) bool {
	return len(s) >= len(prefix)+len(suffix) &&
		s[:len(prefix)] == prefix &&
		s[len(s)-len(suffix):] == suffix
}

// DoesSharedMemoryExist reports whether a named shared-memory object has
// been created (regardless of whether it has been published/finalized).
func DoesSharedMemoryExist(root, name string) bool {
	_, err := os.Stat(shmPath(root, name))
	return err == nil
}
