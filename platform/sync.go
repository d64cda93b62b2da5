package platform

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// SpinMutex is a process-shared mutual-exclusion lock backed by a single
// atomic word, the "spinlock" half of spec.md §4.A's "process-shared mutex
// and condition variable (where available; otherwise emulated with a
// spinlock + semaphore)". It is relocatable (no pointers) so it can live
// inside a mapped shared-memory segment.
type SpinMutex struct {
	locked atomix.Uint64 // 0 = unlocked, 1 = locked
}

// TryLock attempts to acquire the lock without blocking.
func (m *SpinMutex) TryLock() bool {
	return m.locked.CompareAndSwapAcqRel(0, 1)
}

// Lock blocks until the lock is acquired, backing off adaptively between
// attempts via iox.Backoff — the "semaphore" half of the emulation: rather
// than burn CPU spinning indefinitely, contended callers yield.
func (m *SpinMutex) Lock() {
	if m.TryLock() {
		return
	}
	b := iox.Backoff{}
	for !m.TryLock() {
		b.Wait()
	}
}

// Unlock releases the lock.
func (m *SpinMutex) Unlock() {
	m.locked.StoreRelease(0)
}

// PollUntil polls cond with adaptive backoff until it reports true or
// deadline elapses (a zero deadline blocks indefinitely). Used by the
// waits that cross a process boundary (dynamicstorage.Open and
// service.Listener.TimedWait) in place of a true futex/condition
// variable, since no cross-process condition variable primitive is
// available without a platform-specific semaphore object — the resulting
// wake latency is bounded by iox.Backoff's maximum step, not by an
// unbounded sleep.
func PollUntil(deadline time.Time, cond func() bool) bool {
	if cond() {
		return true
	}
	b := iox.Backoff{}
	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return cond()
		}
		b.Wait()
		if cond() {
			return true
		}
	}
}
