package connection

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/iceoryx2/lockfree"
	"code.hybscloud.com/iceoryx2/shm"
)

// OverflowPolicy selects how Publisher.Send behaves against a full
// delivery queue.
type OverflowPolicy int

const (
	OverflowBlock OverflowPolicy = iota
	OverflowDiscardOldest
	OverflowDiscardNewest
)

// State is a connection's position in the NotEstablished → Opening →
// Established → PeerDead lattice (spec.md §4.H).
type State uint64

const (
	NotEstablished State = iota
	Opening
	Established
	PeerDead
)

// Connection holds one (publisher, subscriber) pair's delivery/release
// queues of shm.PointerOffset. Delivery and Release are the genuinely
// shared-memory-shaped part (built with lockfree.NewSPSCAt over a
// connection.Table slot for any service that needs cross-process
// delivery — see table.go); state/version are this process's own view
// of the pair's lattice position and are deliberately not
// shared — each side reaches Established by observing the peer's
// descriptor in the registry's dynamic config independently, the way
// a real connection handshake has two sides rather than one shared
// flag. History replay lives one level up in Publisher's HistoryRing,
// not here, since it is shared across every connection of a given
// publisher rather than per-pair, and reference counting for the
// publisher's buckets is likewise kept in Publisher.
type Connection struct {
	Delivery    *lockfree.SPSC[shm.PointerOffset]
	Release     *lockfree.SPSC[shm.PointerOffset]
	state       atomix.Uint64
	version     atomix.Uint64
	Overflow    OverflowPolicy
	MaxBorrowed int
}

// NewConnection creates a connection whose delivery/release queues
// live on the Go heap, for a single process simulating both ends of a
// pair without a connection.Table (unit tests, or a service that has
// no cross-process requirement). Services that must be reachable from
// another process build Connection via connection.Table.Get instead.
func NewConnection(deliveryCapacity, releaseCapacity int, overflow OverflowPolicy, maxBorrowed int) *Connection {
	c := &Connection{
		Delivery:    lockfree.NewSPSC[shm.PointerOffset](deliveryCapacity),
		Release:     lockfree.NewSPSC[shm.PointerOffset](releaseCapacity),
		Overflow:    overflow,
		MaxBorrowed: maxBorrowed,
	}
	c.state.StoreRelease(uint64(NotEstablished))
	return c
}

// State returns the connection's current lattice position.
func (c *Connection) State() State {
	return State(c.state.LoadAcquire())
}

// MarkOpening transitions NotEstablished → Opening, triggered when the
// registry's dynamic-config snapshot reveals the peer endpoint.
func (c *Connection) MarkOpening() {
	c.state.StoreRelease(uint64(Opening))
}

// MarkEstablished transitions Opening → Established once both sides
// have mapped the shared queues, signaled by bumping the version word.
func (c *Connection) MarkEstablished() {
	c.version.AddAcqRel(1)
	c.state.StoreRelease(uint64(Established))
}

// Version returns the header version word, used by the peer side to
// detect that mapping has completed.
func (c *Connection) Version() uint64 {
	return c.version.LoadAcquire()
}

// MarkPeerDead transitions Established → PeerDead: the peer's
// descriptor is gone from the dynamic-config snapshot and the monitor
// has declared its node dead.
func (c *Connection) MarkPeerDead() {
	c.state.StoreRelease(uint64(PeerDead))
}

// Reset transitions PeerDead → NotEstablished after local cleanup
// (refcount reclaim for in-flight offsets attributable to this peer)
// has completed.
func (c *Connection) Reset() {
	c.state.StoreRelease(uint64(NotEstablished))
}
