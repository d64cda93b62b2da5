package shm

import (
	"os"

	"code.hybscloud.com/iceoryx2/platform"
)

// Segment is an open named shared-memory region with a parsed Header
// and a PoolAllocator over its payload buckets. Grounded on
// original_source/iceoryx2-cal/src/shared_memory/posix.rs, layered on
// top of platform.SharedMemory with this module's header written at the
// start of the mapping, ahead of the payload bytes. The allocator's
// bucket state is not stored in the mapping: every Segment value,
// created or opened, builds its own process-local PoolAllocator with
// all buckets free, so two Segment values over the same name allocate
// independently of each other.
type Segment struct {
	mem       *platform.SharedMemory
	header    Header
	allocator *PoolAllocator
}

func align(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// CreateSegment creates a new named segment sized to hold a Header plus
// numBuckets buckets of bucketSize bytes aligned to bucketAlign.
func CreateSegment(root, name string, allocatorID uint32, numBuckets int, bucketSize, bucketAlign uint32, perm os.FileMode) (*Segment, error) {
	payloadOff := align(uint64(HeaderSize()), uint64(bucketAlign))
	totalSize := payloadOff + uint64(numBuckets)*uint64(bucketSize)

	mem, err := platform.CreateSharedMemory(root, name, int(totalSize), perm, true)
	if err != nil {
		return nil, err
	}

	h := Header{
		AllocatorID:   allocatorID,
		BucketSize:    bucketSize,
		BucketAlign:   bucketAlign,
		NumBuckets:    uint32(numBuckets),
		ManagementOff: uint64(HeaderSize()),
		PayloadOff:    payloadOff,
	}
	copy(mem.Bytes(), h.Encode())

	return &Segment{
		mem:       mem,
		header:    h,
		allocator: NewPoolAllocator(numBuckets, bucketSize, bucketAlign, payloadOff),
	}, nil
}

// OpenSegment opens an existing named segment, validating its header and
// building a fresh PoolAllocator from the header's bucket layout.
// totalSize must be computed by the caller, since the header alone does
// not record the mapping's overall length.
func OpenSegment(root, name string, totalSize int) (*Segment, error) {
	mem, err := platform.OpenSharedMemory(root, name, totalSize)
	if err != nil {
		return nil, err
	}
	h, err := DecodeHeader(mem.Bytes())
	if err != nil {
		_ = mem.Close()
		return nil, err
	}
	return &Segment{
		mem:       mem,
		header:    h,
		allocator: NewPoolAllocator(int(h.NumBuckets), h.BucketSize, h.BucketAlign, h.PayloadOff),
	}, nil
}

// Header returns the segment's decoded header.
func (s *Segment) Header() Header {
	return s.header
}

// Allocator returns the pool allocator managing the payload region.
func (s *Segment) Allocator() *PoolAllocator {
	return s.allocator
}

// PayloadAt returns a slice of length h.BucketSize over the payload
// bytes at offset, aliasing the underlying mapping.
func (s *Segment) PayloadAt(offset uint64) []byte {
	end := offset + uint64(s.header.BucketSize)
	return s.mem.Bytes()[offset:end]
}

// Name returns the segment's name.
func (s *Segment) Name() string {
	return s.mem.Name()
}

// SetOwner marks whether Close should also remove the backing object.
func (s *Segment) SetOwner(owner bool) {
	s.mem.SetOwner(owner)
}

// Close unmaps the segment.
func (s *Segment) Close() error {
	return s.mem.Close()
}
