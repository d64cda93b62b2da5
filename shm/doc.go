// Package shm implements named POSIX shared-memory segments carrying a
// small self-describing header, and a fixed-bucket pool allocator over
// the payload region that hands out offsets rather than pointers so
// that allocations remain valid after a peer process maps the segment
// at a different virtual address.
package shm
