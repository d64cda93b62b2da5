// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ReleaseMode selects Release's contention behavior.
type ReleaseMode int

const (
	// ReleaseDefault retries the CAS until it succeeds. Wait-free for a
	// bounded number of concurrent callers equal to the set's capacity.
	ReleaseDefault ReleaseMode = iota
	// ReleaseLeakOnFailure gives up after a bounded number of attempts and
	// abandons the index (it is never handed out again) rather than
	// retrying indefinitely. Used by the dead-node cleanup sweep (spec.md
	// §4.I "Cleanup"), which must make forward progress even while other
	// participants are concurrently mutating the same set.
	ReleaseLeakOnFailure
)

const leakOnFailureAttempts = 64

// UniqueIndexSet allocates and releases dense uint32 indices from
// [0, capacity) using a CAS-based free list. The free-list links live
// in a Go slice allocated by NewUniqueIndexSet, so a set is a
// process-local value; it is not laid out for placement in shared
// memory.
//
// Grounded on the cycle-stamped CAS retry shape of a slot-array FIFO queue,
// generalized from "queue slot" to "free index": the head is a packed
// (index, aba) word updated with a single CAS, exactly as a lock-free
// queue's producer/consumer indices are, just carrying a free-list pointer
// instead of a ring position.
type UniqueIndexSet struct {
	_        pad
	head     atomix.Uint64 // packed (index:32, aba:32)
	_        pad
	next     []atomix.Uint64 // next[i] = next free index after i, or sentinel
	capacity uint32
}

const idSetSentinel = ^uint32(0)

// NewUniqueIndexSet creates a set that allocates indices in [0, capacity).
// Panics if capacity == 0 or capacity >= idSetSentinel.
func NewUniqueIndexSet(capacity int) *UniqueIndexSet {
	if capacity <= 0 {
		panic("lockfree: capacity must be > 0")
	}
	if uint32(capacity) >= idSetSentinel {
		panic("lockfree: capacity too large")
	}
	n := uint32(capacity)
	s := &UniqueIndexSet{
		next:     make([]atomix.Uint64, n),
		capacity: n,
	}
	for i := uint32(0); i < n; i++ {
		if i+1 < n {
			s.next[i].StoreRelaxed(uint64(i + 1))
		} else {
			s.next[i].StoreRelaxed(uint64(idSetSentinel))
		}
	}
	s.head.StoreRelaxed(packIndex(0, 0))
	return s
}

// Cap returns the set's capacity.
func (s *UniqueIndexSet) Cap() int {
	return int(s.capacity)
}

// Acquire allocates and returns a free index. Returns ErrWouldBlock when
// the set is fully allocated (see errs.ErrOutOfCapacity for the semantic
// variant callers may translate it to).
func (s *UniqueIndexSet) Acquire() (uint32, error) {
	sw := spin.Wait{}
	for {
		old := s.head.LoadAcquire()
		idx, aba := unpackIndex(old)
		if idx == idSetSentinel {
			return 0, ErrWouldBlock
		}
		nextIdx := uint32(s.next[idx].LoadRelaxed())
		newHead := packIndex(nextIdx, aba+1)
		if s.head.CompareAndSwapAcqRel(old, newHead) {
			return idx, nil
		}
		sw.Once()
	}
}

// Release returns idx to the free list. idx must have been returned by a
// prior Acquire and not already released (debug-checked by callers that
// track slot ownership — UniqueIndexSet itself has no way to detect a
// double release since that would require an additional occupied bitmap).
//
// Under ReleaseLeakOnFailure, Release gives up after a bounded number of
// contended attempts and abandons idx rather than blocking; the index is
// never reused but no caller is made to retry indefinitely. This is a
// best-effort mode, not a correctness hazard: abandoning a handful of
// indices during a dead-node sweep only shrinks effective capacity, it
// never double-allocates one.
func (s *UniqueIndexSet) Release(idx uint32, mode ReleaseMode) error {
	sw := spin.Wait{}
	attempts := 0
	for {
		old := s.head.LoadAcquire()
		curIdx, aba := unpackIndex(old)
		s.next[idx].StoreRelease(uint64(curIdx))
		newHead := packIndex(idx, aba+1)
		if s.head.CompareAndSwapAcqRel(old, newHead) {
			return nil
		}
		attempts++
		if mode == ReleaseLeakOnFailure && attempts >= leakOnFailureAttempts {
			return nil
		}
		sw.Once()
	}
}

func packIndex(idx, aba uint32) uint64 {
	return uint64(aba)<<32 | uint64(idx)
}

func unpackIndex(v uint64) (idx, aba uint32) {
	return uint32(v), uint32(v >> 32)
}
