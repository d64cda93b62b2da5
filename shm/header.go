package shm

import (
	"encoding/binary"
	"fmt"

	"code.hybscloud.com/iceoryx2/errs"
)

// magic identifies a segment as belonging to this module, rejecting a
// stale or foreign mapping before any field in it is trusted.
const magic uint64 = 0x6963653072797832 // "ice0ryx2"

// formatVersion changes whenever the header or pool-allocator on-disk
// layout changes incompatibly.
const formatVersion uint32 = 1

// headerSize is the fixed byte length of Header.Encode's output,
// padded to a cache line so the payload region that follows starts
// aligned regardless of allocation size.
const headerSize = 64

// Header is the fixed-layout prefix written at the start of every
// segment this module creates: magic, format version, allocator
// identity, and the bucket layout the pool allocator needs to
// reconstruct itself from a bare mapping. Grounded on the original
// implementation's shared-memory construct header, which a consumer
// reads once at open time, before any other field in the mapping is
// trusted. Relocatable: no pointers, fixed width, safe to memcpy.
type Header struct {
	AllocatorID   uint32
	BucketSize    uint32
	BucketAlign   uint32
	NumBuckets    uint32
	ManagementOff uint64 // recorded as HeaderSize; no allocator state is written there
	PayloadOff    uint64 // offset of the first payload bucket
}

// Encode serializes h into a headerSize-byte buffer prefixed with the
// magic and version fields.
func (h Header) Encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(buf[0:8], magic)
	binary.LittleEndian.PutUint32(buf[8:12], formatVersion)
	binary.LittleEndian.PutUint32(buf[12:16], h.AllocatorID)
	binary.LittleEndian.PutUint32(buf[16:20], h.BucketSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.BucketAlign)
	binary.LittleEndian.PutUint32(buf[24:28], h.NumBuckets)
	binary.LittleEndian.PutUint64(buf[32:40], h.ManagementOff)
	binary.LittleEndian.PutUint64(buf[40:48], h.PayloadOff)
	return buf
}

// DecodeHeader validates the magic and version fields of buf and
// returns the decoded Header. Returns errs.ErrCorrupted on mismatch —
// the spec treats a bad magic/version as fatal storage corruption, not
// a recoverable condition.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < headerSize {
		return h, errs.ErrCorrupted
	}
	if binary.LittleEndian.Uint64(buf[0:8]) != magic {
		return h, errs.ErrCorrupted
	}
	if binary.LittleEndian.Uint32(buf[8:12]) != formatVersion {
		return h, fmt.Errorf("%w: %w", errs.ErrCorrupted, errs.ErrVersionMismatch)
	}
	h.AllocatorID = binary.LittleEndian.Uint32(buf[12:16])
	h.BucketSize = binary.LittleEndian.Uint32(buf[16:20])
	h.BucketAlign = binary.LittleEndian.Uint32(buf[20:24])
	h.NumBuckets = binary.LittleEndian.Uint32(buf[24:28])
	h.ManagementOff = binary.LittleEndian.Uint64(buf[32:40])
	h.PayloadOff = binary.LittleEndian.Uint64(buf[40:48])
	return h, nil
}

// HeaderSize returns the fixed on-disk size of an encoded Header.
func HeaderSize() int {
	return headerSize
}
