// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
)

// DescriptorSet is a fixed-capacity set of T (typically an endpoint
// descriptor) with a stable slot index per insertion, letting other
// participants observe membership changes lock-free via a state snapshot
// instead of re-scanning the whole set on every poll.
//
// Grounded on the per-slot version/cycle stamp idiom of an FAA-based MPMC
// queue, repurposed from "which round owns this transient queue slot" to
// "has this durable membership slot changed since I last looked": each
// slot carries an occupied flag and a monotonic version counter bumped on
// every Insert/Remove, in place of the queue's cycle counter.
type DescriptorSet[T any] struct {
	ids      *UniqueIndexSet
	occupied []atomix.Bool
	version  []atomix.Uint64
	data     []T
	capacity int
}

// NewDescriptorSet creates a set with the given capacity.
func NewDescriptorSet[T any](capacity int) *DescriptorSet[T] {
	return &DescriptorSet[T]{
		ids:      NewUniqueIndexSet(capacity),
		occupied: make([]atomix.Bool, capacity),
		version:  make([]atomix.Uint64, capacity),
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// Cap returns the set's capacity.
func (d *DescriptorSet[T]) Cap() int {
	return d.capacity
}

// Insert stores value in a free slot and returns its stable index.
// Returns ErrWouldBlock if the set is at capacity.
func (d *DescriptorSet[T]) Insert(value T) (uint32, error) {
	idx, err := d.ids.Acquire()
	if err != nil {
		return 0, err
	}
	d.data[idx] = value
	d.version[idx].AddAcqRel(1)
	d.occupied[idx].StoreRelease(true)
	return idx, nil
}

// Remove clears slot idx and returns it to the free pool. mode controls
// contention behavior on the underlying index release — see ReleaseMode.
func (d *DescriptorSet[T]) Remove(idx uint32, mode ReleaseMode) error {
	if idx >= uint32(d.capacity) {
		return ErrWouldBlock
	}
	d.occupied[idx].StoreRelease(false)
	var zero T
	d.data[idx] = zero
	d.version[idx].AddAcqRel(1)
	return d.ids.Release(idx, mode)
}

// Get returns the value at idx and whether the slot is currently occupied.
func (d *DescriptorSet[T]) Get(idx uint32) (T, bool) {
	if idx >= uint32(d.capacity) {
		var zero T
		return zero, false
	}
	ok := d.occupied[idx].LoadAcquire()
	return d.data[idx], ok
}

// Range calls fn for every currently occupied slot, in index order. fn's
// return value controls whether iteration continues.
func (d *DescriptorSet[T]) Range(fn func(idx uint32, value T) bool) {
	for i := 0; i < d.capacity; i++ {
		if !d.occupied[i].LoadAcquire() {
			continue
		}
		if !fn(uint32(i), d.data[i]) {
			return
		}
	}
}

// Snapshot is an opaque point-in-time view of a DescriptorSet's per-slot
// occupied flag and version, produced by GetState and consumed by
// UpdateState.
type Snapshot struct {
	occupied []bool
	version  []uint64
}

// GetState returns a snapshot of the set's current membership. The
// snapshot is a plain value copy — safe to keep across calls and mutate
// concurrently with the set.
func (d *DescriptorSet[T]) GetState() *Snapshot {
	s := &Snapshot{
		occupied: make([]bool, d.capacity),
		version:  make([]uint64, d.capacity),
	}
	for i := 0; i < d.capacity; i++ {
		s.occupied[i] = d.occupied[i].LoadAcquire()
		s.version[i] = d.version[i].LoadAcquire()
	}
	return s
}

// UpdateState compares the set's current membership against s, returns the
// indices whose occupied flag or version changed since s was taken, and
// updates s in place to the current membership. A slot that was inserted
// and removed between two calls still reports as changed (its version
// advanced), even though occupied is false both before and after — callers
// that only care about net membership should check the returned index's
// current Get result, not infer it from the change alone.
func (d *DescriptorSet[T]) UpdateState(s *Snapshot) []uint32 {
	var changed []uint32
	for i := 0; i < d.capacity; i++ {
		occ := d.occupied[i].LoadAcquire()
		ver := d.version[i].LoadAcquire()
		if occ != s.occupied[i] || ver != s.version[i] {
			changed = append(changed, uint32(i))
			s.occupied[i] = occ
			s.version[i] = ver
		}
	}
	return changed
}
