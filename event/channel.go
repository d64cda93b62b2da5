package event

import (
	"sync"
	"time"

	"code.hybscloud.com/iceoryx2/container"
	"code.hybscloud.com/iceoryx2/errs"
)

// EventID identifies what happened, not how many times — a publisher's
// port id, typically. Bounded by the channel's MaxEventID.
type EventID uint64

// Channel is the shared state between one Notifier and one Listener:
// a fixed-capacity, order-insensitive set of pending ids plus a
// condition variable for the blocking/timed wait paths. Two distinct
// notifications for the same id before the listener drains it
// coalesce into a single pending entry — the listener learns "id N
// fired", not how many times.
type Channel struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *container.Set[EventID]
	maxID   EventID
	closed  bool
}

// NewChannel creates a channel with the given pending-set capacity and
// the largest EventID that will ever be notified on it.
func NewChannel(capacity int, maxID EventID) *Channel {
	c := &Channel{pending: container.NewSet[EventID](capacity), maxID: maxID}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Notifier is the send half of a Channel.
type Notifier struct {
	ch *Channel
}

// NewNotifier returns a Notifier bound to ch.
func NewNotifier(ch *Channel) *Notifier {
	return &Notifier{ch: ch}
}

// Notify signals id to any attached Listener. Returns
// errs.ErrEventIdOutOfBounds if id exceeds the channel's configured
// maximum, or errs.ErrFailedToDeliverSignal if the pending set is full
// and id is not already pending (the notification is dropped, not
// blocked).
func (n *Notifier) Notify(id EventID) error {
	ch := n.ch
	if id > ch.maxID {
		return errs.ErrEventIdOutOfBounds
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if err := ch.pending.Insert(id); err != nil {
		return errs.ErrFailedToDeliverSignal
	}
	ch.cond.Broadcast()
	return nil
}

// Close wakes any blocked Listener with an empty result, used when the
// notifier's process is going away (spec.md §4.J liveness handling).
func (n *Notifier) Close() {
	ch := n.ch
	ch.mu.Lock()
	ch.closed = true
	ch.cond.Broadcast()
	ch.mu.Unlock()
}

// Listener is the receive half of a Channel.
type Listener struct {
	ch *Channel
}

// NewListener returns a Listener bound to ch.
func NewListener(ch *Channel) *Listener {
	return &Listener{ch: ch}
}

// drain empties the pending set and returns its contents. Caller must
// hold ch.mu.
func (ch *Channel) drain() []EventID {
	if ch.pending.Len() == 0 {
		return nil
	}
	ids := make([]EventID, 0, ch.pending.Len())
	ch.pending.Range(func(v EventID) bool {
		ids = append(ids, v)
		return true
	})
	for _, id := range ids {
		ch.pending.Remove(id)
	}
	return ids
}

// TryWait returns any currently pending ids without blocking.
func (l *Listener) TryWait() []EventID {
	ch := l.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.drain()
}

// TimedWait blocks until an id is notified or timeout elapses.
func (l *Listener) TimedWait(timeout time.Duration) []EventID {
	ch := l.ch
	deadline := time.Now().Add(timeout)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	for ch.pending.Len() == 0 && !ch.closed {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		waitWithTimeout(ch.cond, remaining)
	}
	return ch.drain()
}

// BlockingWait blocks indefinitely until an id is notified or the
// notifier closes.
func (l *Listener) BlockingWait() []EventID {
	ch := l.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for ch.pending.Len() == 0 && !ch.closed {
		ch.cond.Wait()
	}
	return ch.drain()
}

// waitWithTimeout wakes cond.Wait() after timeout by running it on a
// helper goroutine and racing a timer against it. sync.Cond has no
// native timed wait; this is the standard Go idiom for bolting one on
// without abandoning the condition-variable shape the teacher's own
// process_local design and spec.md §4.G both call for.
func waitWithTimeout(cond *sync.Cond, timeout time.Duration) {
	done := make(chan struct{})
	timer := time.AfterFunc(timeout, cond.Broadcast)
	defer timer.Stop()
	go func() {
		cond.Wait()
		close(done)
	}()
	<-done
}
