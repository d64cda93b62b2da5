package connection_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/connection"
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/shm"
)

func newTestAllocator(t *testing.T, numBuckets int) *shm.PoolAllocator {
	t.Helper()
	return shm.NewPoolAllocator(numBuckets, 64, 8, 128)
}

func TestConnectionStateLattice(t *testing.T) {
	conn := connection.NewConnection(4, 4, connection.OverflowBlock, 4)
	if conn.State() != connection.NotEstablished {
		t.Fatalf("expected NotEstablished, got %v", conn.State())
	}
	conn.MarkOpening()
	if conn.State() != connection.Opening {
		t.Fatalf("expected Opening, got %v", conn.State())
	}
	conn.MarkEstablished()
	if conn.State() != connection.Established {
		t.Fatal("expected Established")
	}
	if conn.Version() == 0 {
		t.Fatal("expected version to be bumped on establish")
	}
	conn.MarkPeerDead()
	if conn.State() != connection.PeerDead {
		t.Fatal("expected PeerDead")
	}
	conn.Reset()
	if conn.State() != connection.NotEstablished {
		t.Fatal("expected reset to NotEstablished")
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	alloc := newTestAllocator(t, 4)
	pub := connection.NewPublisher(alloc, 0)
	sub := connection.NewSubscriber(4)

	conn := connection.NewConnection(4, 4, connection.OverflowBlock, 4)
	pub.Connect(1, conn)

	off, err := alloc.Allocate(64)
	if err != nil {
		t.Fatal(err)
	}
	sample := shm.PointerOffset{SegmentID: 1, Offset: off}

	results := pub.Publish(sample, time.Second)
	if err := results[1]; err != nil {
		t.Fatal(err)
	}
	if pub.RefCount(sample) != 1 {
		t.Fatalf("expected refcount 1, got %d", pub.RefCount(sample))
	}

	got, err := sub.Receive(conn)
	if err != nil {
		t.Fatal(err)
	}
	if got != sample {
		t.Fatalf("got %+v want %+v", got, sample)
	}

	sub.Release(conn, got)
	if pub.ReapReleases(conn) != 1 {
		t.Fatal("expected one reaped release")
	}
	if pub.RefCount(sample) != 0 {
		t.Fatalf("expected refcount 0 after reap, got %d", pub.RefCount(sample))
	}
}

func TestDiscardOldestOverflow(t *testing.T) {
	alloc := newTestAllocator(t, 4)
	pub := connection.NewPublisher(alloc, 0)
	conn := connection.NewConnection(2, 4, connection.OverflowDiscardOldest, 4)
	pub.Connect(1, conn)

	var offs []shm.PointerOffset
	for i := 0; i < 4; i++ {
		off, err := alloc.Allocate(64)
		if err != nil {
			t.Fatal(err)
		}
		offs = append(offs, shm.PointerOffset{Offset: off})
		pub.Publish(offs[i], 0)
	}

	sub := connection.NewSubscriber(4)
	first, err := sub.Receive(conn)
	if err != nil {
		t.Fatal(err)
	}
	if first != offs[2] {
		t.Fatalf("expected oldest-surviving offset %+v, got %+v", offs[2], first)
	}
}

func TestExceedsMaxBorrowedSamples(t *testing.T) {
	alloc := newTestAllocator(t, 2)
	pub := connection.NewPublisher(alloc, 0)
	conn := connection.NewConnection(4, 4, connection.OverflowBlock, 1)
	pub.Connect(1, conn)

	off1, _ := alloc.Allocate(64)
	off2, _ := alloc.Allocate(64)
	pub.Publish(shm.PointerOffset{Offset: off1}, 0)
	pub.Publish(shm.PointerOffset{Offset: off2}, 0)

	sub := connection.NewSubscriber(1)
	if _, err := sub.Receive(conn); err != nil {
		t.Fatal(err)
	}
	if _, err := sub.Receive(conn); !errors.Is(err, errs.ErrExceedsBorrows) {
		t.Fatalf("expected ErrExceedsBorrows, got %v", err)
	}
}

func TestHistoryReplayedOnConnect(t *testing.T) {
	alloc := newTestAllocator(t, 8)
	pub := connection.NewPublisher(alloc, 2)

	for i := 0; i < 3; i++ {
		off, _ := alloc.Allocate(64)
		pub.Publish(shm.PointerOffset{Offset: off}, 0)
	}

	conn := connection.NewConnection(4, 4, connection.OverflowBlock, 4)
	pub.Connect(1, conn)

	sub := connection.NewSubscriber(4)
	count := 0
	for {
		if _, err := sub.Receive(conn); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 replayed history entries, got %d", count)
	}
}
