package service

import (
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/event"
	"code.hybscloud.com/iceoryx2/node"
	"code.hybscloud.com/iceoryx2/platform"
	"code.hybscloud.com/iceoryx2/registry"
)

// EventOptions carries the defaults.event.* configuration keys
// (spec.md §6).
type EventOptions struct {
	MaxNotifiers    uint32
	MaxListeners    uint32
	EventIDMaxValue uint64
	PendingCapacity int
}

// Event is an open handle to an event service: the registry entry
// backing its discovery, and this process's attachments to the
// per-listener pending-id tables created against it. Each listener's
// table is a named shared-memory object (spec.md §6 lists
// <service-id>.event as a real filesystem object), so a notifier built
// against a listener discovered through the registry's dynamic config
// attaches to the same table regardless of which process created the
// listener.
type Event struct {
	name   string
	root   string
	opts   EventOptions
	handle *registry.Handle

	mu             sync.Mutex
	nextListenerID uint32
	nextNotifierID uint32
	tables         map[uint32]*event.Table // listenerPortID -> this process's attachment
}

func eventStaticConfig(name string, opts EventOptions) registry.StaticConfig {
	return registry.StaticConfig{
		ServiceName:  name,
		Pattern:      registry.PatternEvent,
		MaxNotifiers: opts.MaxNotifiers,
		MaxListeners: opts.MaxListeners,
		EventIDMax:   opts.EventIDMaxValue,
	}
}

func listenerTableName(serviceName string, listenerPortID uint32) string {
	return fmt.Sprintf("%s.event.%d", serviceName, listenerPortID)
}

// OpenOrCreateEvent opens "name" if it already exists, or creates it.
func OpenOrCreateEvent(root, name string, opts EventOptions, configTimeout time.Duration) (*Event, error) {
	cfg := eventStaticConfig(name, opts)

	handle, err := registry.Create(root, name, cfg)
	switch err {
	case nil:
	case errs.ErrAlreadyExists:
		handle, err = registry.Open(root, name, cfg, configTimeout)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &Event{
		name:   name,
		root:   root,
		opts:   opts,
		handle: handle,
		tables: make(map[uint32]*event.Table),
	}, nil
}

// CreateListener builds a listener port owned by n, backed by a freshly
// created named pending-id table that any notifier attached to this
// port — in this process or another — will Insert into.
func (svc *Event) CreateListener(n *node.Node) (*Listener, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.nextListenerID >= svc.opts.MaxListeners {
		return nil, errs.ErrOutOfCapacity
	}
	portID := svc.nextListenerID
	svc.nextListenerID++

	table, err := event.CreateTable(svc.root, listenerTableName(svc.name, portID), svc.opts.PendingCapacity, 0o644)
	if err != nil {
		return nil, err
	}
	svc.tables[portID] = table

	dyn := svc.handle.Dynamic()
	dyn.AddEndpoint(n.Endpoint(registry.EndpointListener, portID))

	return &Listener{svc: svc, portID: portID, table: table, maxID: event.EventID(svc.opts.EventIDMaxValue)}, nil
}

// CreateNotifier builds a notifier port owned by n, attached to
// listenerPortID's table. The listener's existence is checked against
// the registry's dynamic config, not this process's own bookkeeping,
// so a notifier can attach to a listener created by a different
// handle — including one in a different process — as long as its
// endpoint has been published.
func (svc *Event) CreateNotifier(n *node.Node, listenerPortID uint32) (*Notifier, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.nextNotifierID >= svc.opts.MaxNotifiers {
		return nil, errs.ErrOutOfCapacity
	}
	if !svc.listenerPublished(listenerPortID) {
		return nil, errs.ErrNotFound
	}

	table, ok := svc.tables[listenerPortID]
	if !ok {
		var err error
		table, err = event.OpenTable(svc.root, listenerTableName(svc.name, listenerPortID), svc.opts.PendingCapacity)
		if err != nil {
			return nil, err
		}
		svc.tables[listenerPortID] = table
	}

	portID := svc.nextNotifierID
	svc.nextNotifierID++

	dyn := svc.handle.Dynamic()
	dyn.AddEndpoint(n.Endpoint(registry.EndpointNotifier, portID))

	return &Notifier{svc: svc, portID: portID, table: table, maxID: event.EventID(svc.opts.EventIDMaxValue)}, nil
}

func (svc *Event) listenerPublished(portID uint32) bool {
	found := false
	svc.handle.Dynamic().Range(func(e registry.Endpoint) bool {
		if e.Kind == registry.EndpointListener && e.PortID == portID {
			found = true
			return false
		}
		return true
	})
	return found
}

// Close releases every listener table this process attached to and the
// registry handle it holds open.
func (svc *Event) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, table := range svc.tables {
		_ = table.Close()
	}
	return svc.handle.Close()
}

// Notifier is a notify port created against an Event service.
type Notifier struct {
	svc    *Event
	portID uint32
	table  *event.Table
	maxID  event.EventID
}

// Notify signals id to the notifier's attached listener.
func (n *Notifier) Notify(id event.EventID) error {
	if id > n.maxID {
		return errs.ErrEventIdOutOfBounds
	}
	return n.table.Insert(id)
}

// Listener is a listen port created against an Event service.
type Listener struct {
	svc    *Event
	portID uint32
	table  *event.Table
	maxID  event.EventID
}

// TryWait returns any currently pending ids without blocking.
func (l *Listener) TryWait() []event.EventID {
	return l.table.Drain()
}

// TimedWait blocks until an id is notified or timeout elapses, polling
// the shared table the same way platform.PollUntil backs every other
// blocking wait in this module — a sync.Cond cannot wake a waiter
// sitting in a different process.
func (l *Listener) TimedWait(timeout time.Duration) []event.EventID {
	deadline := time.Now().Add(timeout)
	platform.PollUntil(deadline, l.table.HasPending)
	return l.table.Drain()
}
