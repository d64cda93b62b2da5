package connection

import (
	"code.hybscloud.com/iceoryx2/container"
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/shm"
)

// Subscriber tracks the set of offsets currently borrowed by the
// application across all of its connected publishers, bounded by
// max-borrowed-samples (spec.md §4.H "Subscribe protocol").
type Subscriber struct {
	borrowed *container.Set[shm.PointerOffset]
}

// NewSubscriber creates a Subscriber whose borrowed-set never exceeds
// maxBorrowed offsets at once.
func NewSubscriber(maxBorrowed int) *Subscriber {
	return &Subscriber{borrowed: container.NewSet[shm.PointerOffset](maxBorrowed)}
}

// Receive dequeues the next offset from conn's delivery queue into the
// borrowed-set. Returns errs.ErrWouldBlock if the queue is empty, or
// errs.ErrExceedsBorrows if accepting it would exceed max-borrowed —
// in the latter case the offset is left on the queue for a later
// Receive once the application releases something.
func (s *Subscriber) Receive(conn *Connection) (shm.PointerOffset, error) {
	if s.borrowed.Len() >= s.borrowed.Cap() {
		var zero shm.PointerOffset
		return zero, errs.ErrExceedsBorrows
	}
	off, err := conn.Delivery.Dequeue()
	if err != nil {
		return off, err
	}
	_ = s.borrowed.Insert(off)
	return off, nil
}

// Release returns off to conn's publisher via the release queue and
// removes it from the borrowed-set. The publisher's refcount for off
// drops when it next drains the release queue (Publisher.Publish or
// Publisher.ReapReleases). Failure to enqueue (the release queue is
// full) is not surfaced as an error to the caller: the offset is still
// dropped from the borrowed-set locally, and that reference is never
// returned to the publisher.
func (s *Subscriber) Release(conn *Connection, off shm.PointerOffset) {
	s.borrowed.Remove(off)
	_ = conn.Release.Enqueue(&off)
}

// ReleaseAll releases every currently borrowed offset to conns, used
// when the subscriber is dropped (spec.md §4.H "On subscriber drop").
// conns maps a connection to the predicate deciding which borrowed
// offsets belong to it; callers with a single connection can pass one
// entry that accepts everything.
func (s *Subscriber) ReleaseAll(conns map[*Connection]func(shm.PointerOffset) bool) {
	var toRelease []shm.PointerOffset
	s.borrowed.Range(func(off shm.PointerOffset) bool {
		toRelease = append(toRelease, off)
		return true
	})
	for _, off := range toRelease {
		for conn, owns := range conns {
			if owns(off) {
				s.Release(conn, off)
				break
			}
		}
	}
}

// BorrowedCount returns the number of currently borrowed offsets.
func (s *Subscriber) BorrowedCount() int {
	return s.borrowed.Len()
}
