package registry

// maxEndpoints bounds the fixed-size endpoint table embedded in
// DynamicConfig — dynamicstorage.Storage[T] requires T to have a
// size fixed at compile time, so unlike the instance-count limits in
// StaticConfig (checked, not baked into layout), this ceiling is a
// true compile-time constant.
const maxEndpoints = 64

// nodeIDLen is the fixed width of a node id as stored here: a
// google/uuid string, which is always 36 bytes.
const nodeIDLen = 36

// EndpointKind distinguishes the four port types a dynamic config
// tracks membership for.
type EndpointKind uint8

const (
	EndpointPublisher EndpointKind = iota
	EndpointSubscriber
	EndpointNotifier
	EndpointListener
)

// Endpoint is one live port's identity, relocatable (fixed-width byte
// array for the node id, no pointers).
type Endpoint struct {
	NodeID   [nodeIDLen]byte
	PortID   uint32
	Kind     EndpointKind
	occupied bool
}

// DynamicConfig is the live, mutable half of a service's registration:
// the set of currently connected endpoints, published via
// dynamicstorage.Storage[DynamicConfig]. Mutation is coarse (the whole
// struct lives in one shared-memory cell; the registry does no locking
// of its own, so callers serialize their own access), trading the lock-free
// MPMC container spec.md's idealized design calls for against a much
// smaller surface: this module's services are expected to have dozens,
// not thousands, of endpoints.
type DynamicConfig struct {
	EndpointCount uint32
	Endpoints     [maxEndpoints]Endpoint
}

// AddEndpoint inserts e into the first free slot, reporting false if
// the table is full.
func (d *DynamicConfig) AddEndpoint(e Endpoint) (uint32, bool) {
	for i := range d.Endpoints {
		if !d.Endpoints[i].occupied {
			e.occupied = true
			d.Endpoints[i] = e
			d.EndpointCount++
			return uint32(i), true
		}
	}
	return 0, false
}

// RemoveEndpoint frees slot idx.
func (d *DynamicConfig) RemoveEndpoint(idx uint32) {
	if int(idx) >= len(d.Endpoints) || !d.Endpoints[idx].occupied {
		return
	}
	d.Endpoints[idx] = Endpoint{}
	d.EndpointCount--
}

// Range calls fn for every currently occupied endpoint, in slot order,
// stopping early if fn returns false. Used by a service's port
// creation path to discover peer endpoints published by another
// handle — possibly in another process — rather than relying on
// same-process bookkeeping.
func (d *DynamicConfig) Range(fn func(Endpoint) bool) {
	for i := range d.Endpoints {
		if !d.Endpoints[i].occupied {
			continue
		}
		if !fn(d.Endpoints[i]) {
			return
		}
	}
}

// NodeIDs returns the distinct node ids with at least one live
// endpoint, used by the registry's dead-node sweep.
func (d *DynamicConfig) NodeIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range d.Endpoints {
		if !e.occupied {
			continue
		}
		id := string(e.NodeID[:])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveNode frees every endpoint belonging to nodeID, used when the
// monitor reports that node dead.
func (d *DynamicConfig) RemoveNode(nodeID string) {
	var want [nodeIDLen]byte
	copy(want[:], nodeID)
	for i := range d.Endpoints {
		if d.Endpoints[i].occupied && d.Endpoints[i].NodeID == want {
			d.Endpoints[i] = Endpoint{}
			d.EndpointCount--
		}
	}
}
