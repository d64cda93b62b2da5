package dynamicstorage

import (
	"os"
	"time"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/platform"
)

// State values for the two-phase publish protocol: a freshly created
// segment is zeroed by CreateSharedMemory, so Initializing (0) is the
// implicit starting state without an extra write.
const (
	stateInitializing uint64 = 0
	stateReady        uint64 = 1
)

// Storage is a named shared-memory cell holding one value of type T,
// published through a two-phase state word so that a concurrent
// opener never observes a partially written value: the creator writes
// the value first and only then flips the state word to Ready with a
// release store; the opener spins on an acquire load of that same
// word before touching the value. Grounded on
// original_source/iceoryx2-cal/src/dynamic_storage/process_local.rs's
// create-then-publish shape, adapted from an in-process Any registry
// to a real shared-memory mapping.
//
// T itself is responsible for being safe to read/write concurrently if
// more than one attached process mutates it after publication — this
// type only guarantees the initial handoff is race-free, matching the
// original's own contract (callers there store an AtomicI64, not a
// plain struct).
type Storage[T any] struct {
	mem   *platform.SharedMemory
	state *atomix.Uint64
	value *T
}

func layout[T any]() (valueOff, totalSize int) {
	var zero T
	align := int(unsafe.Alignof(zero))
	if align < 8 {
		align = 8
	}
	valueOff = (8 + align - 1) &^ (align - 1)
	totalSize = valueOff + int(unsafe.Sizeof(zero))
	return valueOff, totalSize
}

// Create allocates a new named storage cell, writes initial, and
// publishes it. Returns errs.ErrAlreadyExists if name is taken.
func Create[T any](root, name string, initial T, perm os.FileMode) (*Storage[T], error) {
	valueOff, size := layout[T]()
	mem, err := platform.CreateSharedMemory(root, name, size, perm, true)
	if err != nil {
		return nil, err
	}

	buf := mem.Bytes()
	state := (*atomix.Uint64)(unsafe.Pointer(&buf[0]))
	value := (*T)(unsafe.Pointer(&buf[valueOff]))
	*value = initial
	state.StoreRelease(stateReady)

	return &Storage[T]{mem: mem, state: state, value: value}, nil
}

// Open attaches to an existing named storage cell, waiting up to
// deadline (zero meaning indefinitely) for the creator to finish
// publishing. Returns errs.ErrInitNotFinalized if the deadline elapses
// first.
func Open[T any](root, name string, deadline time.Duration) (*Storage[T], error) {
	valueOff, size := layout[T]()
	mem, err := platform.OpenSharedMemory(root, name, size)
	if err != nil {
		return nil, err
	}

	buf := mem.Bytes()
	state := (*atomix.Uint64)(unsafe.Pointer(&buf[0]))

	var until time.Time
	if deadline > 0 {
		until = time.Now().Add(deadline)
	}
	if !platform.PollUntil(until, func() bool { return state.LoadAcquire() == stateReady }) {
		_ = mem.Close()
		return nil, errs.ErrInitNotFinalized
	}

	value := (*T)(unsafe.Pointer(&buf[valueOff]))
	return &Storage[T]{mem: mem, state: state, value: value}, nil
}

// Get returns a pointer to the stored value, aliasing shared memory.
func (s *Storage[T]) Get() *T {
	return s.value
}

// IsReady reports whether the value has been published.
func (s *Storage[T]) IsReady() bool {
	return s.state.LoadAcquire() == stateReady
}

// Close detaches from the storage cell without removing it.
func (s *Storage[T]) Close() error {
	return s.mem.Close()
}

// Remove deletes the backing object. Create's caller, not Open's,
// should generally be the one to call this — mirrors
// platform.RemoveSharedMemory's "last owner" convention.
func Remove(root, name string) error {
	return platform.RemoveSharedMemory(root, name)
}

// DoesExist reports whether name has been created (not necessarily
// published yet).
func DoesExist(root, name string) bool {
	return platform.DoesSharedMemoryExist(root, name)
}

// List returns the names of storage cells under root matching the
// given prefix/suffix.
func List(root, prefix, suffix string) ([]string, error) {
	return platform.ListSharedMemory(root, prefix, suffix)
}
