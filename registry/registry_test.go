package registry_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/registry"
)

func testConfig(name string) registry.StaticConfig {
	return registry.StaticConfig{
		ServiceName:        name,
		Pattern:            registry.PatternPublishSubscribe,
		TypeFingerprint:    42,
		MaxPublishers:      4,
		MaxSubscribers:     16,
		MaxNodes:           8,
		SubscriberBufferSz: 32,
		HistorySize:        4,
	}
}

func TestCreateThenOpen(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig("svc")

	created, err := registry.Create(root, "svc", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer created.Close()

	opened, err := registry.Open(root, "svc", cfg, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer opened.Close()

	if opened.Static.TypeFingerprint != cfg.TypeFingerprint {
		t.Fatalf("got %+v", opened.Static)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig("dup")

	h, err := registry.Create(root, "dup", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := registry.Create(root, "dup", cfg); err == nil {
		t.Fatal("expected second create to fail")
	}
}

func TestOpenMissingServiceTimesOut(t *testing.T) {
	root := t.TempDir()
	if _, err := registry.Open(root, "ghost", testConfig("ghost"), 20*time.Millisecond); err == nil {
		t.Fatal("expected error opening a service that was never created")
	}
}

func TestOpenRejectsIncompatibleRequest(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig("incompat")
	h, err := registry.Create(root, "incompat", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	want := cfg
	want.MaxSubscribers = cfg.MaxSubscribers + 1
	if _, err := registry.Open(root, "incompat", want, time.Second); err == nil {
		t.Fatal("expected incompatible capacity request to fail")
	}
}

func TestOpenOrCreateSingleWinner(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig("race")

	const n = 8
	var wg sync.WaitGroup
	results := make([]*registry.Handle, n)
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = registry.OpenOrCreate(root, "race", cfg, time.Second)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
		defer results[i].Close()
	}
}

func TestDiscoverListsCreatedServices(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"disc-a", "disc-b"} {
		h, err := registry.Create(root, name, testConfig(name))
		if err != nil {
			t.Fatal(err)
		}
		defer h.Close()
	}

	names, err := registry.Discover(root, "disc-", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 services, got %v", names)
	}
}

func TestWatchReportsAddedAndRemoved(t *testing.T) {
	root := t.TempDir()

	h, err := registry.Create(root, "watch-a", testConfig("watch-a"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	type change struct{ added, removed []string }
	changes := make(chan change, 8)
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- registry.Watch(root, "watch-", "", 5*time.Millisecond, stop, func(added, removed []string) {
			changes <- change{added, removed}
		})
	}()

	h2, err := registry.Create(root, "watch-b", testConfig("watch-b"))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if len(c.added) != 1 || c.added[0] != "watch-b" {
			t.Fatalf("expected watch-b added, got %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for added notification")
	}

	if err := h2.Close(); err != nil {
		t.Fatal(err)
	}
	if err := registry.Remove(root, "watch-b"); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if len(c.removed) != 1 || c.removed[0] != "watch-b" {
			t.Fatalf("expected watch-b removed, got %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for removed notification")
	}

	close(stop)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestCleanupRemovesDeadNodeEndpoints(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig("cleanup")
	h, err := registry.Create(root, "cleanup", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	dyn := h.Dynamic()
	var nodeID [36]byte
	copy(nodeID[:], "dead-node-that-never-registered.....")
	dyn.AddEndpoint(registry.Endpoint{NodeID: nodeID, PortID: 1, Kind: registry.EndpointPublisher})

	remaining, err := registry.Cleanup(root, "cleanup", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Fatal("expected the dead node's endpoint to be swept")
	}

	if err := registry.Remove(root, "cleanup"); err != nil {
		t.Fatal(err)
	}
}
