package staticstorage

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/platform"
)

// dirName mirrors shm's own "shm"-subdirectory convention (see
// platform/shm.go) so static and dynamic storage never collide on a
// name even if created under the same root.
const dirName = "static_storage"

func path(root, name string) string {
	return filepath.Join(root, dirName, name)
}

// Create writes content to a new, still-writable file at name and then
// flips it to read-only, which is what publishes it: Open refuses the
// file while any write bit is set. Returns errs.ErrAlreadyExists
// if name is taken. Grounded on the create-exclusive-then-publish idiom
// spec.md §4.F asks for (the original implementation routes the
// equivalent through the shared_memory/posix.rs construct; here it is a
// plain file, since static storage has no payload-region structure to
// preserve).
func Create(root, name string, content []byte, perm os.FileMode) error {
	p := path(root, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return platform.Translate("staticstorage.mkdir", err)
	}
	fd, err := unix.Open(p, unix.O_CREAT|unix.O_EXCL|unix.O_WRONLY, uint32(perm|0o200))
	if err != nil {
		return platform.Translate("staticstorage.create", err)
	}
	_, werr := unix.Write(fd, content)
	cerr := unix.Close(fd)
	if werr != nil {
		_ = unix.Unlink(p)
		return platform.Translate("staticstorage.write", werr)
	}
	if cerr != nil {
		_ = unix.Unlink(p)
		return platform.Translate("staticstorage.close", cerr)
	}
	if err := unix.Chmod(p, uint32(perm&^0o222)); err != nil {
		_ = unix.Unlink(p)
		return platform.Translate("staticstorage.publish", err)
	}
	return nil
}

// Open reads the published content of name. Returns errs.ErrNotFound
// if it does not exist, or errs.ErrInitNotFinalized while the file is
// still writable (its creator has not published it yet).
func Open(root, name string) ([]byte, error) {
	p := path(root, name)
	info, err := os.Stat(p)
	if err != nil {
		return nil, platform.Translate("staticstorage.open", err)
	}
	if info.Mode().Perm()&0o222 != 0 {
		return nil, errs.ErrInitNotFinalized
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, platform.Translate("staticstorage.open", err)
	}
	return content, nil
}

// Remove deletes the backing file, used by registry.Remove.
func Remove(root, name string) error {
	if err := os.Remove(path(root, name)); err != nil {
		return platform.Translate("staticstorage.remove", err)
	}
	return nil
}

// DoesExist reports whether a file for name exists, whether already
// published or still being written by its creator.
func DoesExist(root, name string) bool {
	_, err := os.Stat(path(root, name))
	return err == nil
}

// List returns the names of published files under root whose name
// matches prefix/suffix, mirroring platform.ListSharedMemory.
func List(root, prefix, suffix string) ([]string, error) {
	dir := filepath.Join(root, dirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, platform.Translate("staticstorage.list", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if len(n) >= len(prefix)+len(suffix) && n[:len(prefix)] == prefix && n[len(n)-len(suffix):] == suffix {
			names = append(names, n)
		}
	}
	return names, nil
}
