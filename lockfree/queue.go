// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization: the
// producer caches the consumer's dequeue index and vice versa, reducing
// cross-core cache line traffic. The connection delivery/release queues,
// the only queues this module uses, are single-producer/single-consumer
// — see spec.md §9 "Why SPSC not MPMC" — so this is the only queue
// algorithm kept from the engine this package is adapted from.
//
// SPSC stores T by value; T must be relocatable (no absolute pointers) when
// the queue itself lives in shared memory, which is the caller's
// responsibility — see shm.PointerOffset for the type this queue is built
// to carry.
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates a new SPSC queue. Capacity rounds up to the next power
// of 2. Panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("lockfree: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// Len estimates the number of queued elements. Because tail and head are
// read independently without a shared lock, the result is a snapshot that
// may be stale by the time the caller observes it; use only for capacity
// planning (e.g. DiscardOldest admission), never for correctness decisions.
func (q *SPSC[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}

// SPSCLayout returns the number of bytes a shared-memory region must
// reserve to host an SPSC[T] of the given capacity via NewSPSCAt: the
// queue's own header (head/tail/cache fields) plus its ring buffer,
// aligned the same way dynamicstorage.layout lays out a state word
// followed by a value.
func SPSCLayout[T any](capacity int) int {
	n := roundToPow2(capacity)
	bufOff := spscBufOffset[T]()
	var zero T
	return bufOff + n*int(unsafe.Sizeof(zero))
}

func spscBufOffset[T any]() int {
	var zero T
	align := int(unsafe.Alignof(zero))
	if align < 8 {
		align = 8
	}
	hdrSize := int(unsafe.Sizeof(SPSC[T]{}))
	return (hdrSize + align - 1) &^ (align - 1)
}

// NewSPSCAt places an SPSC queue's header at raw[0] and its ring buffer
// immediately after, reinterpreting raw (previously sized by
// SPSCLayout) rather than allocating on the Go heap. Every process
// sharing the mapping backing raw calls NewSPSCAt independently after
// attaching — head, tail and the ring buffer's contents are the parts
// of the mapping that are genuinely shared; the returned *SPSC[T]
// itself, like shm.Segment or dynamicstorage.Storage[T], is a
// per-process pointer aliasing that shared memory, not shared itself.
// raw must be zeroed before the first NewSPSCAt call across every
// attaching process (platform.CreateSharedMemory's zeroInit already
// guarantees this for a freshly created segment), so head and tail
// start at 0 without any process needing to re-initialize them.
func NewSPSCAt[T any](raw []byte, capacity int) *SPSC[T] {
	q := (*SPSC[T])(unsafe.Pointer(&raw[0]))
	n := uint64(roundToPow2(capacity))
	bufOff := spscBufOffset[T]()
	q.buffer = unsafe.Slice((*T)(unsafe.Pointer(&raw[bufOff])), n)
	q.mask = n - 1
	return q
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing between the
// producer-owned and consumer-owned fields of SPSC.
type pad [64]byte
