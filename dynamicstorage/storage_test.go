package dynamicstorage_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/iceoryx2/dynamicstorage"
	"code.hybscloud.com/iceoryx2/errs"
)

type serviceState struct {
	PublisherCount int32
	MaxSubscribers int32
}

func TestCreateOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	created, err := dynamicstorage.Create(root, "svc-a", serviceState{PublisherCount: 1, MaxSubscribers: 8}, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer created.Close()

	opened, err := dynamicstorage.Open[serviceState](root, "svc-a", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer opened.Close()

	if opened.Get().MaxSubscribers != 8 {
		t.Fatalf("got %+v", opened.Get())
	}
}

func TestOpenNonexistentFails(t *testing.T) {
	root := t.TempDir()
	if _, err := dynamicstorage.Open[serviceState](root, "missing", 20*time.Millisecond); err == nil {
		t.Fatal("expected error opening nonexistent storage")
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	root := t.TempDir()
	first, err := dynamicstorage.Create(root, "dup", serviceState{}, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	if _, err := dynamicstorage.Create(root, "dup", serviceState{}, 0o600); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDoesExistAndList(t *testing.T) {
	root := t.TempDir()
	s, err := dynamicstorage.Create(root, "svc-b.idx", serviceState{}, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !dynamicstorage.DoesExist(root, "svc-b.idx") {
		t.Fatal("expected DoesExist to report true")
	}
	names, err := dynamicstorage.List(root, "svc-b", ".idx")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "svc-b.idx" {
		t.Fatalf("got %v", names)
	}
}
