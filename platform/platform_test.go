package platform_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/platform"
)

func TestSharedMemoryCreateOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	m, err := platform.CreateSharedMemory(root, "demo.shm", 4096, 0o600, true)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	copy(m.Bytes(), []byte("hello"))

	o, err := platform.OpenSharedMemory(root, "demo.shm", 4096)
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	if string(o.Bytes()[:5]) != "hello" {
		t.Fatalf("got %q", o.Bytes()[:5])
	}
}

func TestSharedMemoryCreateExclusiveRace(t *testing.T) {
	root := t.TempDir()
	m1, err := platform.CreateSharedMemory(root, "x.shm", 64, 0o600, true)
	if err != nil {
		t.Fatal(err)
	}
	defer m1.Close()

	if _, err := platform.CreateSharedMemory(root, "x.shm", 64, 0o600, true); err == nil {
		t.Fatal("expected AlreadyExists on second create")
	}
}

func TestFileLockExclusiveBlocksSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.lock")
	l1, err := platform.OpenFileLock(path, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Close()
	if err := l1.TryLock(platform.LockExclusive); err != nil {
		t.Fatal(err)
	}

	l2, err := platform.OpenFileLock(path, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	if err := l2.TryLock(platform.LockExclusive); err == nil {
		t.Fatal("expected second exclusive lock attempt to fail")
	}
	if !l2.IsLocked() {
		t.Fatal("IsLocked should report true while l1 holds the lock")
	}

	if err := l1.Unlock(); err != nil {
		t.Fatal(err)
	}
	if l2.IsLocked() {
		t.Fatal("IsLocked should report false after release")
	}
}

func TestSpinMutexMutualExclusion(t *testing.T) {
	var m platform.SpinMutex
	if !m.TryLock() {
		t.Fatal("expected first TryLock to succeed")
	}
	if m.TryLock() {
		t.Fatal("expected second TryLock to fail while locked")
	}
	m.Unlock()
	if !m.TryLock() {
		t.Fatal("expected TryLock to succeed after Unlock")
	}
}

func TestPollUntilTimesOut(t *testing.T) {
	start := time.Now()
	ok := platform.PollUntil(time.Now().Add(30*time.Millisecond), func() bool { return false })
	if ok {
		t.Fatal("expected PollUntil to report false")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("PollUntil took too long: %v", time.Since(start))
	}
}

func TestPollUntilSucceedsEarly(t *testing.T) {
	var ready bool
	go func() {
		time.Sleep(5 * time.Millisecond)
		ready = true
	}()
	ok := platform.PollUntil(time.Now().Add(time.Second), func() bool { return ready })
	if !ok {
		t.Fatal("expected PollUntil to observe ready=true")
	}
}

var _ = os.DevNull
