package shm

import (
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/lockfree"
)

// PoolAllocator partitions a payload region into equal-size, equally
// aligned buckets and hands them out by offset rather than by pointer,
// so an allocation made by one process remains valid once a peer maps
// the same segment at a different address. Grounded on the original
// implementation's PoolAllocator, with bucket bookkeeping delegated to
// lockfree.UniqueIndexSet instead of a bespoke free list — the same
// lock-free CAS idiom, reused rather than re-derived.
type PoolAllocator struct {
	buckets     *lockfree.UniqueIndexSet
	bucketSize  uint32
	bucketAlign uint32
	payloadOff  uint64
}

// NewPoolAllocator creates a pool allocator for numBuckets buckets of
// bucketSize bytes aligned to bucketAlign, with the first bucket
// located at payloadOff within the segment.
func NewPoolAllocator(numBuckets int, bucketSize, bucketAlign uint32, payloadOff uint64) *PoolAllocator {
	return &PoolAllocator{
		buckets:     lockfree.NewUniqueIndexSet(numBuckets),
		bucketSize:  bucketSize,
		bucketAlign: bucketAlign,
		payloadOff:  payloadOff,
	}
}

// NumBuckets returns the total number of buckets.
func (p *PoolAllocator) NumBuckets() int {
	return p.buckets.Cap()
}

// BucketSize returns the fixed size of a single bucket in bytes.
func (p *PoolAllocator) BucketSize() uint32 {
	return p.bucketSize
}

// MaxAlignment returns the alignment every bucket satisfies.
func (p *PoolAllocator) MaxAlignment() uint32 {
	return p.bucketAlign
}

// Allocate hands out one bucket, returning its offset from the start
// of the segment. Returns errs.ErrSizeTooLarge if size exceeds the
// bucket size, or errs.ErrOutOfMemory if no bucket is free.
func (p *PoolAllocator) Allocate(size uint32) (offset uint64, err error) {
	if size > p.bucketSize {
		return 0, errs.ErrSizeTooLarge
	}
	idx, err := p.buckets.Acquire()
	if err != nil {
		return 0, errs.ErrOutOfMemory
	}
	return p.offsetOf(idx), nil
}

// Deallocate returns the bucket at offset to the free list.
func (p *PoolAllocator) Deallocate(offset uint64) error {
	idx, ok := p.indexOf(offset)
	if !ok {
		return errs.ErrContractViolation
	}
	return p.buckets.Release(idx, lockfree.ReleaseDefault)
}

// IndexOf returns the bucket index backing offset, for callers (such
// as connection.Publisher's refcount table) that key their own
// bookkeeping by bucket index rather than by raw offset.
func (p *PoolAllocator) IndexOf(offset uint64) (uint32, bool) {
	return p.indexOf(offset)
}

func (p *PoolAllocator) offsetOf(idx uint32) uint64 {
	return p.payloadOff + uint64(idx)*uint64(p.bucketSize)
}

func (p *PoolAllocator) indexOf(offset uint64) (uint32, bool) {
	if offset < p.payloadOff {
		return 0, false
	}
	rel := offset - p.payloadOff
	if rel%uint64(p.bucketSize) != 0 {
		return 0, false
	}
	idx := rel / uint64(p.bucketSize)
	if idx >= uint64(p.buckets.Cap()) {
		return 0, false
	}
	return uint32(idx), true
}
