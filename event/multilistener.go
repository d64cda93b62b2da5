package event

import (
	"time"

	"code.hybscloud.com/iceoryx2/lockfree"
)

// MultiListener waits across every Channel a listener is currently
// attached to: Attach/Detach mutate a lockfree.DescriptorSet, and
// WaitAny scans every attached channel on every call. The unexported
// reconcile reports which slots changed via GetState/UpdateState's
// diff; WaitAny does not use it. Grounded on
// lockfree.DescriptorSet's snapshot-diffing contract (component 4.C),
// reused here for service-discovery-driven event fan-in rather than
// endpoint membership.
type MultiListener struct {
	channels *lockfree.DescriptorSet[*Channel]
	snapshot *lockfree.Snapshot
}

// NewMultiListener creates a MultiListener able to track up to capacity
// simultaneously attached channels.
func NewMultiListener(capacity int) *MultiListener {
	return &MultiListener{channels: lockfree.NewDescriptorSet[*Channel](capacity)}
}

// Attach adds ch to the set this MultiListener scans, returning a handle
// usable with Detach.
func (m *MultiListener) Attach(ch *Channel) (uint32, error) {
	return m.channels.Insert(ch)
}

// Detach removes a previously attached channel.
func (m *MultiListener) Detach(handle uint32) error {
	return m.channels.Remove(handle, lockfree.ReleaseDefault)
}

// WaitAny polls every attached channel once for pending ids without
// blocking, returning the union. An empty result means none were
// pending at the moment of the scan.
func (m *MultiListener) WaitAny() map[uint32][]EventID {
	results := make(map[uint32][]EventID)
	m.channels.Range(func(idx uint32, ch *Channel) bool {
		if ids := (&Listener{ch: ch}).TryWait(); len(ids) > 0 {
			results[idx] = ids
		}
		return true
	})
	return results
}

// WaitAnyTimed polls repeatedly with adaptive backoff until some
// attached channel has a pending id or timeout elapses.
func (m *MultiListener) WaitAnyTimed(timeout time.Duration) map[uint32][]EventID {
	deadline := time.Now().Add(timeout)
	for {
		if results := m.WaitAny(); len(results) > 0 {
			return results
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

// reconcile refreshes the cached membership snapshot, returning the
// indices whose occupancy or identity changed since the last call —
// the "lazy" half of the snapshot-diffing contract: a caller only
// needs to re-resolve handles that this reports.
func (m *MultiListener) reconcile() []uint32 {
	if m.snapshot == nil {
		m.snapshot = m.channels.GetState()
		var changed []uint32
		m.channels.Range(func(idx uint32, _ *Channel) bool {
			changed = append(changed, idx)
			return true
		})
		return changed
	}
	return m.channels.UpdateState(m.snapshot)
}
