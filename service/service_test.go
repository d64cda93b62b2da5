package service_test

import (
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/connection"
	"code.hybscloud.com/iceoryx2/event"
	"code.hybscloud.com/iceoryx2/monitor"
	"code.hybscloud.com/iceoryx2/node"
	"code.hybscloud.com/iceoryx2/registry"
	"code.hybscloud.com/iceoryx2/service"
)

func u64Options() service.PublishSubscribeOptions {
	return service.PublishSubscribeOptions{
		PayloadSize:    8,
		PayloadAlign:   8,
		BucketCount:    16,
		MaxPublishers:  4,
		MaxSubscribers: 4,
		BufferSize:     4,
		MaxBorrowed:    4,
		HistorySize:    0,
		Overflow:       connection.OverflowBlock,
	}
}

func putU64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getU64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

// S1 — basic publish.
func TestScenarioBasicPublish(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()
	opts.MaxSubscribers = 1
	opts.BufferSize = 4

	svc, err := service.OpenOrCreatePublishSubscribe(root, "demo", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	n, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	sub, err := svc.CreateSubscriber(n)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := svc.CreatePublisher(n)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []uint64{42, 43, 44} {
		off, err := pub.Loan(8)
		if err != nil {
			t.Fatal(err)
		}
		putU64(pub.Payload(off), v)
		pub.Publish(off, time.Second)
	}

	var got []uint64
	for i := 0; i < 3; i++ {
		off, payload, err := sub.ReceiveAny()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, getU64(payload))
		sub.Release(off)
	}
	if len(got) != 3 || got[0] != 42 || got[1] != 43 || got[2] != 44 {
		t.Fatalf("got %v", got)
	}
}

// S2 — overflow DiscardOldest.
func TestScenarioOverflowDiscardOldest(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()
	opts.MaxSubscribers = 1
	opts.BufferSize = 2
	opts.Overflow = connection.OverflowDiscardOldest

	svc, err := service.OpenOrCreatePublishSubscribe(root, "overflow", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	n, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	sub, err := svc.CreateSubscriber(n)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := svc.CreatePublisher(n)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []uint64{1, 2, 3, 4} {
		off, err := pub.Loan(8)
		if err != nil {
			t.Fatal(err)
		}
		putU64(pub.Payload(off), v)
		pub.Publish(off, time.Second)
	}

	var got []uint64
	for {
		_, payload, err := sub.ReceiveAny()
		if err != nil {
			break
		}
		got = append(got, getU64(payload))
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("got %v", got)
	}
}

// S3 — history replay.
func TestScenarioHistoryReplay(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()
	opts.MaxSubscribers = 2
	opts.BufferSize = 4
	opts.HistorySize = 3

	svc, err := service.OpenOrCreatePublishSubscribe(root, "history", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	n, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	pub, err := svc.CreatePublisher(n)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []uint64{10, 20, 30, 40} {
		off, err := pub.Loan(8)
		if err != nil {
			t.Fatal(err)
		}
		putU64(pub.Payload(off), v)
		pub.Publish(off, time.Second)
	}

	sub, err := svc.CreateSubscriber(n)
	if err != nil {
		t.Fatal(err)
	}

	var got []uint64
	for i := 0; i < 3; i++ {
		_, payload, err := sub.ReceiveAny()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, getU64(payload))
	}
	if len(got) != 3 || got[0] != 20 || got[1] != 30 || got[2] != 40 {
		t.Fatalf("got %v", got)
	}
}

// S4 — event coalescing.
func TestScenarioEventCoalescing(t *testing.T) {
	root := t.TempDir()
	opts := service.EventOptions{MaxNotifiers: 4, MaxListeners: 4, EventIDMaxValue: 127, PendingCapacity: 8}

	svc, err := service.OpenOrCreateEvent(root, "evt", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	n, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	listener, err := svc.CreateListener(n)
	if err != nil {
		t.Fatal(err)
	}
	notifier, err := svc.CreateNotifier(n, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := notifier.Notify(5); err != nil {
			t.Fatal(err)
		}
	}

	ids := listener.TryWait()
	if len(ids) != 1 || ids[0] != event.EventID(5) {
		t.Fatalf("got %v", ids)
	}
}

// S6 — service re-open compatibility.
func TestScenarioReopenCompatibility(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()
	opts.MaxPublishers = 4

	svc, err := service.OpenOrCreatePublishSubscribe(root, "compat", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	small := opts
	small.MaxPublishers = 2
	reopened, err := service.OpenOrCreatePublishSubscribe(root, "compat", small, time.Second)
	if err != nil {
		t.Fatalf("expected compatible reopen to succeed: %v", err)
	}
	defer reopened.Close()

	big := opts
	big.MaxPublishers = 8
	if _, err := service.OpenOrCreatePublishSubscribe(root, "compat", big, time.Second); err == nil {
		t.Fatal("expected incompatible reopen requesting more publishers to fail")
	}
}

// S7 — cross-handle delivery: two independent handles opened against
// the same service name, simulating two processes each with their own
// in-process bookkeeping, still connect a publisher created on one to
// a subscriber created on the other via the shared connection table.
func TestScenarioCrossHandlePublishSubscribe(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()

	svcA, err := service.OpenOrCreatePublishSubscribe(root, "cross", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcA.Close()
	svcB, err := service.OpenOrCreatePublishSubscribe(root, "cross", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcB.Close()

	nodeA, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeA.Close()
	nodeB, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeB.Close()

	sub, err := svcB.CreateSubscriber(nodeB)
	if err != nil {
		t.Fatal(err)
	}
	pub, err := svcA.CreatePublisher(nodeA)
	if err != nil {
		t.Fatal(err)
	}

	off, err := pub.Loan(8)
	if err != nil {
		t.Fatal(err)
	}
	putU64(pub.Payload(off), 99)
	pub.Publish(off, time.Second)

	_, payload, err := sub.ReceiveAny()
	if err != nil {
		t.Fatal(err)
	}
	if getU64(payload) != 99 {
		t.Fatalf("got %d, want 99", getU64(payload))
	}
}

// S7b — a subscriber created on a second handle after the publisher
// already exists is still picked up, via Publish's lazy reconcile
// against the dynamic config rather than only at connection-creation
// time.
func TestScenarioCrossHandleLateSubscriber(t *testing.T) {
	root := t.TempDir()
	opts := u64Options()

	svcA, err := service.OpenOrCreatePublishSubscribe(root, "cross-late", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcA.Close()
	svcB, err := service.OpenOrCreatePublishSubscribe(root, "cross-late", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcB.Close()

	nodeA, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeA.Close()
	nodeB, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeB.Close()

	pub, err := svcA.CreatePublisher(nodeA)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := svcB.CreateSubscriber(nodeB)
	if err != nil {
		t.Fatal(err)
	}

	off, err := pub.Loan(8)
	if err != nil {
		t.Fatal(err)
	}
	putU64(pub.Payload(off), 7)
	pub.Publish(off, time.Second)

	_, payload, err := sub.ReceiveAny()
	if err != nil {
		t.Fatal(err)
	}
	if getU64(payload) != 7 {
		t.Fatalf("got %d, want 7", getU64(payload))
	}
}

// S8 — cross-handle event delivery: a notifier attached on one handle
// to a listener created on another reaches it through the listener's
// named shared pending-id table rather than same-process bookkeeping.
func TestScenarioCrossHandleEvent(t *testing.T) {
	root := t.TempDir()
	opts := service.EventOptions{MaxNotifiers: 4, MaxListeners: 4, EventIDMaxValue: 63, PendingCapacity: 4}

	svcA, err := service.OpenOrCreateEvent(root, "cross-evt", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcA.Close()
	svcB, err := service.OpenOrCreateEvent(root, "cross-evt", opts, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer svcB.Close()

	nodeA, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeA.Close()
	nodeB, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeB.Close()

	listener, err := svcA.CreateListener(nodeA)
	if err != nil {
		t.Fatal(err)
	}
	notifier, err := svcB.CreateNotifier(nodeB, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := notifier.Notify(9); err != nil {
		t.Fatal(err)
	}

	ids := listener.TryWait()
	if len(ids) != 1 || ids[0] != event.EventID(9) {
		t.Fatalf("got %v", ids)
	}
}

// S5 — dead-node cleanup.
func TestScenarioDeadNodeCleanup(t *testing.T) {
	root := t.TempDir()
	cfg := registry.StaticConfig{
		ServiceName:    "X",
		Pattern:        registry.PatternPublishSubscribe,
		MaxPublishers:  4,
		MaxSubscribers: 4,
	}

	nodeA, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	handle, err := registry.Create(root, "X", cfg)
	if err != nil {
		t.Fatal(err)
	}
	handle.Dynamic().AddEndpoint(nodeA.Endpoint(registry.EndpointPublisher, 0))

	// Node_A crashes: its monitor lock-file disappears without an
	// orderly Shutdown (simulated here by forcibly clearing the
	// underlying lock-file rather than killing a process).
	if err := monitor.Cleanup(root, nodeA.ID); err != nil {
		t.Fatal(err)
	}

	remaining, err := registry.Cleanup(root, "X", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Fatalf("expected endpoint count 0 after cleanup, got %d", remaining)
	}

	// Node_B now registers a publisher endpoint on the swept "X".
	nodeB, err := node.New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer nodeB.Close()
	handle.Dynamic().AddEndpoint(nodeB.Endpoint(registry.EndpointPublisher, 1))
	if handle.Dynamic().EndpointCount != 1 {
		t.Fatalf("expected Node_B's publisher to register, got count %d", handle.Dynamic().EndpointCount)
	}
}
