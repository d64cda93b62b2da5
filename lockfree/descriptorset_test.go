// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree_test

import (
	"testing"

	"code.hybscloud.com/iceoryx2/lockfree"
)

type fakeDescriptor struct {
	kind string
	id   uint64
}

func TestDescriptorSetInsertRemoveGet(t *testing.T) {
	ds := lockfree.NewDescriptorSet[fakeDescriptor](4)

	idx, err := ds.Insert(fakeDescriptor{kind: "publisher", id: 1})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ds.Get(idx)
	if !ok || got.id != 1 {
		t.Fatalf("Get: got (%v, %v)", got, ok)
	}

	if err := ds.Remove(idx, lockfree.ReleaseDefault); err != nil {
		t.Fatal(err)
	}
	if _, ok := ds.Get(idx); ok {
		t.Fatalf("Get after Remove: expected not-occupied")
	}
}

func TestDescriptorSetUpdateStateDetectsChanges(t *testing.T) {
	ds := lockfree.NewDescriptorSet[fakeDescriptor](4)
	snap := ds.GetState()

	if changed := ds.UpdateState(snap); len(changed) != 0 {
		t.Fatalf("expected no changes yet, got %v", changed)
	}

	idx, err := ds.Insert(fakeDescriptor{kind: "subscriber", id: 42})
	if err != nil {
		t.Fatal(err)
	}

	changed := ds.UpdateState(snap)
	if len(changed) != 1 || changed[0] != idx {
		t.Fatalf("expected change at %d, got %v", idx, changed)
	}

	// A second UpdateState with the now-current snapshot sees nothing new.
	if changed := ds.UpdateState(snap); len(changed) != 0 {
		t.Fatalf("expected no further changes, got %v", changed)
	}

	if err := ds.Remove(idx, lockfree.ReleaseDefault); err != nil {
		t.Fatal(err)
	}
	changed = ds.UpdateState(snap)
	if len(changed) != 1 || changed[0] != idx {
		t.Fatalf("expected removal change at %d, got %v", idx, changed)
	}
}

func TestDescriptorSetRange(t *testing.T) {
	ds := lockfree.NewDescriptorSet[fakeDescriptor](4)
	want := map[uint64]bool{1: true, 2: true, 3: true}
	for id := range want {
		if _, err := ds.Insert(fakeDescriptor{id: id}); err != nil {
			t.Fatal(err)
		}
	}
	got := map[uint64]bool{}
	ds.Range(func(_ uint32, v fakeDescriptor) bool {
		got[v.id] = true
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Range visited %d entries, want %d", len(got), len(want))
	}
}
