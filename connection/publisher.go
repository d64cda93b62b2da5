package connection

import (
	"time"

	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/shm"
)

// Publisher tracks reference counts for every bucket in its own data
// segment and fans a sample out to every currently connected
// subscriber. Refcounts are kept as plain process-local integers, not
// shared-memory atomics: only the publisher's own send/reap cycle ever
// touches them, so there is nothing to synchronize (spec.md §4.H,
// "Reference counter table").
type Publisher struct {
	alloc       *shm.PoolAllocator
	refcounts   []int32
	history     *HistoryRing
	connections map[uint32]*Connection
}

// NewPublisher creates a Publisher over alloc's buckets, keeping the
// last historySize sent offsets for replay to newly connected
// subscribers.
func NewPublisher(alloc *shm.PoolAllocator, historySize int) *Publisher {
	return &Publisher{
		alloc:       alloc,
		refcounts:   make([]int32, alloc.NumBuckets()),
		history:     NewHistoryRing(historySize),
		connections: make(map[uint32]*Connection),
	}
}

// Connect registers conn under subscriberID and replays history into
// it, per spec.md §4.H ("each offset is enqueued into the new delivery
// queue before live traffic").
func (p *Publisher) Connect(subscriberID uint32, conn *Connection) {
	p.connections[subscriberID] = conn
	if p.history.queue == nil {
		return
	}
	p.history.queue.Range(func(_ int, off shm.PointerOffset) bool {
		if err := conn.Delivery.Enqueue(&off); err == nil {
			p.incRef(off)
		}
		return true
	})
}

// Disconnect removes the connection for subscriberID, used on
// PeerDead → NotEstablished cleanup.
func (p *Publisher) Disconnect(subscriberID uint32) {
	delete(p.connections, subscriberID)
}

// Connected reports whether subscriberID already has a connection
// registered, so a caller reconciling against newly discovered
// endpoints can skip pairs it has already wired.
func (p *Publisher) Connected(subscriberID uint32) bool {
	_, ok := p.connections[subscriberID]
	return ok
}

func (p *Publisher) incRef(off shm.PointerOffset) {
	idx, ok := p.alloc.IndexOf(off.Offset)
	if ok && int(idx) < len(p.refcounts) {
		p.refcounts[idx]++
	}
}

// decRef decrements the refcount for off's bucket, reclaiming it to the
// allocator once it reaches zero.
func (p *Publisher) decRef(off shm.PointerOffset) {
	idx, ok := p.alloc.IndexOf(off.Offset)
	if !ok || int(idx) >= len(p.refcounts) {
		return
	}
	p.refcounts[idx]--
	if p.refcounts[idx] <= 0 {
		p.refcounts[idx] = 0
		_ = p.alloc.Deallocate(off.Offset)
	}
}

// RefCount returns the current reference count for off's bucket,
// exposed for tests and diagnostics.
func (p *Publisher) RefCount(off shm.PointerOffset) int32 {
	idx, ok := p.alloc.IndexOf(off.Offset)
	if !ok || int(idx) >= len(p.refcounts) {
		return 0
	}
	return p.refcounts[idx]
}

// Send delivers off to subscriberID's connection only, applying its
// configured overflow policy against a full delivery queue, and
// increments the bucket's refcount once on success. Does not touch
// history — see Publish for the all-subscribers-plus-history send
// path a publisher normally uses.
func (p *Publisher) Send(subscriberID uint32, off shm.PointerOffset, blockTimeout time.Duration) error {
	conn, ok := p.connections[subscriberID]
	if !ok {
		return errs.ErrNotFound
	}
	if err := p.enqueue(conn, off, blockTimeout); err != nil {
		return err
	}
	p.incRef(off)
	return nil
}

// Publish first drains every connection's release queue (see
// ReapReleases), then fans off out to every currently connected
// subscriber and records it in history exactly once, regardless of
// subscriber count. Returns the per-subscriber send error, if any,
// keyed by subscriber id — a failure for one subscriber does not stop
// delivery to others.
func (p *Publisher) Publish(off shm.PointerOffset, blockTimeout time.Duration) map[uint32]error {
	for _, conn := range p.connections {
		p.ReapReleases(conn)
	}
	results := make(map[uint32]error, len(p.connections))
	for id, conn := range p.connections {
		if err := p.enqueue(conn, off, blockTimeout); err != nil {
			results[id] = err
			continue
		}
		p.incRef(off)
	}

	if evicted, didEvict := p.history.Record(off); didEvict {
		p.decRef(evicted)
	}
	if p.history.queue != nil {
		p.incRef(off)
	}
	return results
}

func (p *Publisher) enqueue(conn *Connection, off shm.PointerOffset, blockTimeout time.Duration) error {
	if err := conn.Delivery.Enqueue(&off); err == nil {
		return nil
	}

	switch conn.Overflow {
	case OverflowBlock:
		deadline := time.Now().Add(blockTimeout)
		for {
			if err := conn.Delivery.Enqueue(&off); err == nil {
				return nil
			}
			if time.Now().After(deadline) {
				return errs.ErrUnreceivable
			}
			time.Sleep(50 * time.Microsecond)
		}
	case OverflowDiscardOldest:
		if oldest, derr := conn.Delivery.Dequeue(); derr == nil {
			p.decRef(oldest)
		}
		return conn.Delivery.Enqueue(&off)
	case OverflowDiscardNewest:
		return nil
	default:
		return errs.ErrUnreceivable
	}
}

// ReapReleases drains conn's release queue, decrementing the refcount
// of every returned offset — buckets that reach zero go back to the
// allocator. Returns the number of offsets reaped.
func (p *Publisher) ReapReleases(conn *Connection) int {
	n := 0
	for {
		off, err := conn.Release.Dequeue()
		if err != nil {
			return n
		}
		p.decRef(off)
		n++
	}
}
