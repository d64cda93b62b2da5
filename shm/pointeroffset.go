package shm

// PointerOffset identifies a byte range within a named segment by
// segment identity and byte offset rather than by virtual address,
// since every process maps the same segment at its own address. It is
// the payload carried through every connection's delivery queue.
//
// SegmentID is carried alongside Offset but nothing in this module
// resolves it: the service package uses one data segment per service
// and leaves SegmentID at 0.
type PointerOffset struct {
	SegmentID uint16
	Offset    uint64
}

// IsNil reports whether o is the zero value.
func (o PointerOffset) IsNil() bool {
	return o.SegmentID == 0 && o.Offset == 0
}
