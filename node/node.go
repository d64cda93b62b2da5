package node

import (
	"github.com/google/uuid"

	"code.hybscloud.com/iceoryx2/monitor"
	"code.hybscloud.com/iceoryx2/registry"
)

// Node is a process's registration in the liveness lattice: a unique
// id and the monitor lock-file backing it, per spec.md §4.J. Every
// service endpoint a process opens records this id in the service's
// dynamic config so a dead-node sweep (registry.Cleanup) can find and
// release it after a crash.
type Node struct {
	ID      string
	root    string
	monitor *monitor.Monitor
}

// New creates a fresh node under root, generating its id and taking
// the monitor lock-file that declares it alive for as long as the
// process runs.
func New(root string) (*Node, error) {
	id := uuid.NewString()
	m, err := monitor.Create(root, id)
	if err != nil {
		return nil, err
	}
	return &Node{ID: id, root: root, monitor: m}, nil
}

// Close runs the orderly-shutdown path: remove the lock-file and
// release it, so a concurrent registry.Cleanup observes DoesNotExist
// rather than Dead the moment this call returns, instead of waiting
// out the dead-node detection timeout.
func (n *Node) Close() error {
	return n.monitor.Shutdown()
}

// CleanupDeadNode removes nodeID's monitor state unconditionally, used
// by global.node.cleanup_dead_nodes_on_creation /
// …_on_destruction once registry.Cleanup has released its endpoints.
func CleanupDeadNode(root, nodeID string) error {
	return monitor.Cleanup(root, nodeID)
}

// Endpoint builds a registry.Endpoint descriptor for one of this
// node's live ports, ready to insert into a service's dynamic config.
func (n *Node) Endpoint(kind registry.EndpointKind, portID uint32) registry.Endpoint {
	var id [36]byte
	copy(id[:], n.ID)
	return registry.Endpoint{NodeID: id, PortID: portID, Kind: kind}
}
