// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/iceoryx2/lockfree"
)

func TestUniqueIndexSetAcquireRelease(t *testing.T) {
	s := lockfree.NewUniqueIndexSet(4)

	seen := map[uint32]bool{}
	for i := 0; i < 4; i++ {
		idx, err := s.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if seen[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = true
	}

	if _, err := s.Acquire(); !errors.Is(err, lockfree.ErrWouldBlock) {
		t.Fatalf("Acquire on exhausted set: got %v, want ErrWouldBlock", err)
	}

	for idx := range seen {
		if err := s.Release(idx, lockfree.ReleaseDefault); err != nil {
			t.Fatalf("Release(%d): %v", idx, err)
		}
	}

	for i := 0; i < 4; i++ {
		if _, err := s.Acquire(); err != nil {
			t.Fatalf("re-Acquire %d: %v", i, err)
		}
	}
}

func TestUniqueIndexSetLeakOnFailure(t *testing.T) {
	s := lockfree.NewUniqueIndexSet(2)
	idx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Release(idx, lockfree.ReleaseLeakOnFailure); err != nil {
		t.Fatalf("Release under no contention should still succeed: %v", err)
	}
	if _, err := s.Acquire(); err != nil {
		t.Fatalf("released index should be reusable: %v", err)
	}
}
