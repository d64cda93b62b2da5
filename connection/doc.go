// Package connection implements the zero-copy publish/subscribe
// transport between one publisher and one subscriber: a pair of SPSC
// pointer-offset queues (delivery and release), a process-local
// reference-count table over the publisher's data-segment buckets, a
// history replay ring, and the connection state machine
// (NotEstablished → Opening → Established → PeerDead). Grounded on
// spec.md §4.H, with the queue mechanics adapted from
// lockfree.SPSC[shm.PointerOffset] (itself adapted from the teacher's
// Lamport ring buffer).
package connection
