package event_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/event"
)

func TestNotifyThenTryWait(t *testing.T) {
	ch := event.NewChannel(4, 10)
	n := event.NewNotifier(ch)
	l := event.NewListener(ch)

	if ids := l.TryWait(); len(ids) != 0 {
		t.Fatalf("expected no pending ids, got %v", ids)
	}
	if err := n.Notify(3); err != nil {
		t.Fatal(err)
	}
	ids := l.TryWait()
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("got %v", ids)
	}
	if ids := l.TryWait(); len(ids) != 0 {
		t.Fatalf("expected drained set, got %v", ids)
	}
}

func TestNotifyRejectsOutOfBoundsID(t *testing.T) {
	ch := event.NewChannel(4, 5)
	n := event.NewNotifier(ch)
	if err := n.Notify(6); !errors.Is(err, errs.ErrEventIdOutOfBounds) {
		t.Fatalf("expected ErrEventIdOutOfBounds, got %v", err)
	}
}

func TestNotifyCoalescesRepeatedID(t *testing.T) {
	ch := event.NewChannel(1, 10)
	n := event.NewNotifier(ch)
	l := event.NewListener(ch)

	if err := n.Notify(1); err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(1); err != nil {
		t.Fatalf("expected coalesced re-notify to succeed, got %v", err)
	}
	ids := l.TryWait()
	if len(ids) != 1 {
		t.Fatalf("expected exactly one coalesced id, got %v", ids)
	}
}

func TestNotifyDropsWhenFull(t *testing.T) {
	ch := event.NewChannel(1, 10)
	n := event.NewNotifier(ch)

	if err := n.Notify(1); err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(2); !errors.Is(err, errs.ErrFailedToDeliverSignal) {
		t.Fatalf("expected ErrFailedToDeliverSignal, got %v", err)
	}
}

func TestBlockingWaitWakesOnNotify(t *testing.T) {
	ch := event.NewChannel(4, 10)
	n := event.NewNotifier(ch)
	l := event.NewListener(ch)

	resultCh := make(chan []event.EventID, 1)
	go func() {
		resultCh <- l.BlockingWait()
	}()

	time.Sleep(10 * time.Millisecond)
	if err := n.Notify(7); err != nil {
		t.Fatal(err)
	}

	select {
	case ids := <-resultCh:
		if len(ids) != 1 || ids[0] != 7 {
			t.Fatalf("got %v", ids)
		}
	case <-time.After(time.Second):
		t.Fatal("BlockingWait did not wake up in time")
	}
}

func TestTimedWaitExpires(t *testing.T) {
	ch := event.NewChannel(4, 10)
	l := event.NewListener(ch)
	start := time.Now()
	ids := l.TimedWait(30 * time.Millisecond)
	if ids != nil {
		t.Fatalf("expected nil, got %v", ids)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("TimedWait took too long: %v", time.Since(start))
	}
}

func TestMultiListenerAttachWaitDetach(t *testing.T) {
	ml := event.NewMultiListener(4)
	ch1 := event.NewChannel(4, 10)
	ch2 := event.NewChannel(4, 10)

	h1, err := ml.Attach(ch1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := ml.Attach(ch2)
	if err != nil {
		t.Fatal(err)
	}

	if err := event.NewNotifier(ch2).Notify(9); err != nil {
		t.Fatal(err)
	}

	results := ml.WaitAny()
	if len(results) != 1 {
		t.Fatalf("got %v", results)
	}
	if ids, ok := results[h2]; !ok || ids[0] != 9 {
		t.Fatalf("got %v", results)
	}

	if err := ml.Detach(h1); err != nil {
		t.Fatal(err)
	}
	if err := ml.Detach(h2); err != nil {
		t.Fatal(err)
	}
}
