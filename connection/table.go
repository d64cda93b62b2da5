package connection

import (
	"os"

	"code.hybscloud.com/iceoryx2/lockfree"
	"code.hybscloud.com/iceoryx2/platform"
	"code.hybscloud.com/iceoryx2/shm"
)

// Table is a named shared-memory region hosting one Connection slot per
// (publisher, subscriber) pair a service's capacities allow, addressed
// by a deterministic index rather than a discovery handshake: both
// sides of a pair compute the same slot from their own port ids (see
// service.PublishSubscribe.connIndex), so whichever side attaches
// first finds the slot already zeroed and whichever attaches second
// finds the same Delivery/Release queues the first side is already
// using. This is what makes connection establishment genuinely
// cross-process rather than an artifact of two ports sharing one Go
// process's heap — the registry's dynamic config (component 4.I) is
// how a process learns a peer's port id exists at all; Table is what
// it attaches to once it has.
//
// Grounded on the same create-then-attach shape as shm.Segment, with
// lockfree.SPSCLayout/NewSPSCAt in place of shm's pool-allocator math:
// a slot is simply two back-to-back SPSC[shm.PointerOffset] regions.
type Table struct {
	mem         *platform.SharedMemory
	capacity    int
	bufferCap   int
	slotSize    int
	deliveryLen int
}

func slotSize(bufferCap int) int {
	one := lockfree.SPSCLayout[shm.PointerOffset](bufferCap)
	return 2 * one
}

// CreateTable creates a new named connection table with room for
// capacity slots, each holding a delivery and a release queue of
// bufferCap entries.
func CreateTable(root, name string, capacity, bufferCap int, perm os.FileMode) (*Table, error) {
	ss := slotSize(bufferCap)
	mem, err := platform.CreateSharedMemory(root, name, capacity*ss, perm, true)
	if err != nil {
		return nil, err
	}
	return &Table{
		mem:         mem,
		capacity:    capacity,
		bufferCap:   bufferCap,
		slotSize:    ss,
		deliveryLen: ss / 2,
	}, nil
}

// OpenTable attaches to an existing named connection table. capacity
// and bufferCap must match the values CreateTable was called with —
// callers reconstruct them from the owning service's static config,
// exactly as shm.OpenSegment's caller must already know totalSize.
func OpenTable(root, name string, capacity, bufferCap int) (*Table, error) {
	ss := slotSize(bufferCap)
	mem, err := platform.OpenSharedMemory(root, name, capacity*ss)
	if err != nil {
		return nil, err
	}
	return &Table{
		mem:         mem,
		capacity:    capacity,
		bufferCap:   bufferCap,
		slotSize:    ss,
		deliveryLen: ss / 2,
	}, nil
}

// Cap returns the table's slot capacity.
func (t *Table) Cap() int {
	return t.capacity
}

// Get reconstructs this process's Connection over slot idx, aliasing
// its Delivery/Release queues from the shared mapping. Safe to call
// repeatedly for the same idx from the same or a different process —
// every caller lands on the same underlying queue bytes, only the
// returned *Connection (and its process-local state/version bookkeeping)
// is a fresh value per call.
func (t *Table) Get(idx int, overflow OverflowPolicy, maxBorrowed int) *Connection {
	base := idx * t.slotSize
	slot := t.mem.Bytes()[base : base+t.slotSize]
	c := &Connection{
		Delivery:    lockfree.NewSPSCAt[shm.PointerOffset](slot[:t.deliveryLen], t.bufferCap),
		Release:     lockfree.NewSPSCAt[shm.PointerOffset](slot[t.deliveryLen:], t.bufferCap),
		Overflow:    overflow,
		MaxBorrowed: maxBorrowed,
	}
	c.state.StoreRelease(uint64(NotEstablished))
	return c
}

// Close unmaps the table without removing it — the owning service's
// segment lifetime, not the table's own Close, decides when the
// backing object goes away (mirrors shm.Segment.Close).
func (t *Table) Close() error {
	return t.mem.Close()
}
