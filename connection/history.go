package connection

import (
	"code.hybscloud.com/iceoryx2/container"
	"code.hybscloud.com/iceoryx2/shm"
)

// HistoryRing is a publisher-side ring buffer of the last N sent
// offsets, replayed into a newly connected subscriber's delivery queue
// before any live traffic. Grounded on spec.md §4.H "History" and
// container.Queue's PushOverwrite, which provides exactly the bounded
// eviction this ring needs.
type HistoryRing struct {
	queue *container.Queue[shm.PointerOffset]
}

// NewHistoryRing creates a ring holding the last size offsets. A size
// of zero means the service has history disabled.
func NewHistoryRing(size int) *HistoryRing {
	if size <= 0 {
		return &HistoryRing{}
	}
	return &HistoryRing{queue: container.NewQueue[shm.PointerOffset](size)}
}

// Record appends off, reporting the evicted offset (if any) so the
// caller can release its reference.
func (h *HistoryRing) Record(off shm.PointerOffset) (evicted shm.PointerOffset, didEvict bool) {
	if h.queue == nil {
		return shm.PointerOffset{}, false
	}
	return h.queue.PushOverwrite(off)
}

// Len returns the number of offsets currently held.
func (h *HistoryRing) Len() int {
	if h.queue == nil {
		return 0
	}
	return h.queue.Len()
}
