package event

import (
	"os"
	"unsafe"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/platform"
)

// occupiedBit tags a slot word as holding a real EventID rather than
// being free — EventID(0) is a legitimate notification and must stay
// distinguishable from an empty slot.
const occupiedBit = uint64(1) << 63

// Table is a named shared-memory region implementing Channel's pending-
// id set for notifiers and listeners that are not guaranteed to share a
// process: a fixed number of CAS-addressed slots, scanned linearly for
// a slot already holding id (coalescing, exactly like container.Set)
// or, failing that, a free slot. Capacity is independent of maxID —
// the same distinction Channel.pending draws between a channel's
// pending-set capacity and its EventID range.
//
// Grounded on lockfree.UniqueIndexSet's CAS-retry shape and on
// shm.Segment/connection.Table's create-then-attach pattern.
type Table struct {
	mem   *platform.SharedMemory
	slots []atomix.Uint64
}

func tableLayout(capacity int) int {
	var zero atomix.Uint64
	return capacity * int(unsafe.Sizeof(zero))
}

// CreateTable creates a new named pending-id table with room for
// capacity distinct concurrently-pending ids.
func CreateTable(root, name string, capacity int, perm os.FileMode) (*Table, error) {
	mem, err := platform.CreateSharedMemory(root, name, tableLayout(capacity), perm, true)
	if err != nil {
		return nil, err
	}
	return newTable(mem, capacity), nil
}

// OpenTable attaches to an existing named pending-id table. capacity
// must match the value CreateTable was called with.
func OpenTable(root, name string, capacity int) (*Table, error) {
	mem, err := platform.OpenSharedMemory(root, name, tableLayout(capacity))
	if err != nil {
		return nil, err
	}
	return newTable(mem, capacity), nil
}

func newTable(mem *platform.SharedMemory, capacity int) *Table {
	data := mem.Bytes()
	return &Table{
		mem:   mem,
		slots: unsafe.Slice((*atomix.Uint64)(unsafe.Pointer(&data[0])), capacity),
	}
}

// Cap returns the table's slot capacity.
func (t *Table) Cap() int {
	return len(t.slots)
}

// Insert notifies id, coalescing with an already-pending occurrence of
// the same id. Returns errs.ErrFailedToDeliverSignal if id is not
// already pending and no free slot remains.
func (t *Table) Insert(id EventID) error {
	want := occupiedBit | uint64(id)
	for i := range t.slots {
		if t.slots[i].LoadAcquire() == want {
			return nil
		}
	}
	for i := range t.slots {
		if t.slots[i].LoadAcquire() != 0 {
			continue
		}
		if t.slots[i].CompareAndSwapAcqRel(0, want) {
			return nil
		}
	}
	return errs.ErrFailedToDeliverSignal
}

// Drain removes and returns every currently pending id, in slot order.
func (t *Table) Drain() []EventID {
	var ids []EventID
	for i := range t.slots {
		cur := t.slots[i].LoadAcquire()
		if cur == 0 {
			continue
		}
		if t.slots[i].CompareAndSwapAcqRel(cur, 0) {
			ids = append(ids, EventID(cur&^occupiedBit))
		}
	}
	return ids
}

// HasPending reports whether any id is currently pending, without
// draining it — used by the blocking/timed wait paths' poll condition.
func (t *Table) HasPending() bool {
	for i := range t.slots {
		if t.slots[i].LoadAcquire() != 0 {
			return true
		}
	}
	return false
}

// Close unmaps the table without removing it.
func (t *Table) Close() error {
	return t.mem.Close()
}
