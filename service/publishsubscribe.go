package service

import (
	"sync"
	"time"

	"code.hybscloud.com/iceoryx2/connection"
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/node"
	"code.hybscloud.com/iceoryx2/registry"
	"code.hybscloud.com/iceoryx2/shm"
)

// PublishSubscribeOptions carries the defaults.publish_subscribe.*
// configuration keys a new or reopened service is checked against
// (spec.md §6).
type PublishSubscribeOptions struct {
	PayloadSize     uint32
	PayloadAlign    uint32
	BucketCount     int
	MaxPublishers   uint32
	MaxSubscribers  uint32
	BufferSize      uint32
	MaxBorrowed     int
	HistorySize     int
	Overflow        connection.OverflowPolicy
	TypeFingerprint uint64
}

// PublishSubscribe is an open handle to a publish-subscribe service:
// the registry entry backing its discovery, the data segment backing
// its samples, the connection table backing its delivery/release
// queues, and the live publisher/subscriber ports created against it in
// this process.
type PublishSubscribe struct {
	name      string
	root      string
	opts      PublishSubscribeOptions
	handle    *registry.Handle
	segment   *shm.Segment
	connTable *connection.Table

	mu               sync.Mutex
	nextPublisherID  uint32
	nextSubscriberID uint32
	publishers       map[uint32]*connection.Publisher
	subscribers      map[uint32]*subscriberState
}

type subscriberState struct {
	inner  *connection.Subscriber
	conns  map[uint32]*connection.Connection // publisherID -> Connection
	origin map[shm.PointerOffset]uint32
}

func staticConfigFor(name string, opts PublishSubscribeOptions) registry.StaticConfig {
	return registry.StaticConfig{
		ServiceName:        name,
		Pattern:            registry.PatternPublishSubscribe,
		TypeFingerprint:    opts.TypeFingerprint,
		MaxPublishers:      opts.MaxPublishers,
		MaxSubscribers:     opts.MaxSubscribers,
		SubscriberBufferSz: opts.BufferSize,
		HistorySize:        uint32(opts.HistorySize),
	}
}

func connTableName(name string) string {
	return name + ".conn"
}

// OpenOrCreatePublishSubscribe opens "name" if it already exists,
// compatibility-checked against opts, or creates it if this is the
// first participant. The data segment and connection table are created
// alongside the registry entry and opened by name on a subsequent
// participant. The connection table is sized from the registration
// owner's static config rather than this call's own opts, since a
// later, smaller request is allowed to attach to a larger existing
// service (registry.Open's compatibility check). The data segment's
// size is computed from this call's own BucketCount, PayloadSize and
// PayloadAlign, which the static config does not record.
func OpenOrCreatePublishSubscribe(root, name string, opts PublishSubscribeOptions, configTimeout time.Duration) (*PublishSubscribe, error) {
	cfg := staticConfigFor(name, opts)

	handle, err := registry.Create(root, name, cfg)
	switch err {
	case nil:
		segment, serr := shm.CreateSegment(root, name, 0, opts.BucketCount, opts.PayloadSize, opts.PayloadAlign, 0o644)
		if serr != nil {
			_ = handle.Close()
			return nil, serr
		}
		capacity := int(opts.MaxPublishers) * int(opts.MaxSubscribers)
		connTable, terr := connection.CreateTable(root, connTableName(name), capacity, int(opts.BufferSize), 0o644)
		if terr != nil {
			_ = segment.Close()
			_ = handle.Close()
			return nil, terr
		}
		return newPublishSubscribe(root, name, opts, handle, segment, connTable), nil
	case errs.ErrAlreadyExists:
		handle, err = registry.Open(root, name, cfg, configTimeout)
		if err != nil {
			return nil, err
		}
		owner := handle.Static
		payloadOff := alignUp(shm.HeaderSize(), int(opts.PayloadAlign))
		totalSize := payloadOff + opts.BucketCount*int(opts.PayloadSize)
		segment, serr := shm.OpenSegment(root, name, totalSize)
		if serr != nil {
			_ = handle.Close()
			return nil, serr
		}
		capacity := int(owner.MaxPublishers) * int(owner.MaxSubscribers)
		connTable, terr := connection.OpenTable(root, connTableName(name), capacity, int(owner.SubscriberBufferSz))
		if terr != nil {
			_ = segment.Close()
			_ = handle.Close()
			return nil, terr
		}
		return newPublishSubscribe(root, name, opts, handle, segment, connTable), nil
	default:
		return nil, err
	}
}

func alignUp(v, a int) int {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

func newPublishSubscribe(root, name string, opts PublishSubscribeOptions, handle *registry.Handle, segment *shm.Segment, connTable *connection.Table) *PublishSubscribe {
	return &PublishSubscribe{
		name:        name,
		root:        root,
		opts:        opts,
		handle:      handle,
		segment:     segment,
		connTable:   connTable,
		publishers:  make(map[uint32]*connection.Publisher),
		subscribers: make(map[uint32]*subscriberState),
	}
}

// connIndex computes the deterministic connTable slot a (publisher,
// subscriber) pair uses, independently derivable by whichever side
// attaches first: both sides already know their own bounded port id
// and the service's MaxSubscribers, so no handshake is needed to agree
// on which physical memory backs a given pair.
func (svc *PublishSubscribe) connIndex(publisherID, subscriberID uint32) int {
	return int(publisherID)*int(svc.handle.Static.MaxSubscribers) + int(subscriberID)
}

// reconcilePublisher wires inner to every subscriber endpoint currently
// published in the dynamic config it is not already connected to —
// including subscribers created by another handle, possibly in another
// process, discovered by scanning the registry's shared endpoint table
// rather than this process's own bookkeeping.
func (svc *PublishSubscribe) reconcilePublisher(publisherID uint32, inner *connection.Publisher) {
	svc.handle.Dynamic().Range(func(e registry.Endpoint) bool {
		if e.Kind != registry.EndpointSubscriber || inner.Connected(e.PortID) {
			return true
		}
		conn := svc.connTable.Get(svc.connIndex(publisherID, e.PortID), svc.opts.Overflow, svc.opts.MaxBorrowed)
		conn.MarkOpening()
		conn.MarkEstablished()
		inner.Connect(e.PortID, conn)
		if sub, ok := svc.subscribers[e.PortID]; ok {
			sub.conns[publisherID] = conn
		}
		return true
	})
}

// reconcileSubscriber is reconcilePublisher's mirror image for a
// subscriber port.
func (svc *PublishSubscribe) reconcileSubscriber(subscriberID uint32, state *subscriberState) {
	svc.handle.Dynamic().Range(func(e registry.Endpoint) bool {
		if e.Kind != registry.EndpointPublisher {
			return true
		}
		if _, ok := state.conns[e.PortID]; ok {
			return true
		}
		conn := svc.connTable.Get(svc.connIndex(e.PortID, subscriberID), svc.opts.Overflow, svc.opts.MaxBorrowed)
		conn.MarkOpening()
		conn.MarkEstablished()
		state.conns[e.PortID] = conn
		if pub, ok := svc.publishers[e.PortID]; ok {
			pub.Connect(subscriberID, conn)
		}
		return true
	})
}

// CreatePublisher builds a new publisher port owned by n, establishing
// a connection to every subscriber currently published in the dynamic
// config — in this process or another.
func (svc *PublishSubscribe) CreatePublisher(n *node.Node) (*Publisher, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.nextPublisherID >= svc.opts.MaxPublishers {
		return nil, errs.ErrOutOfCapacity
	}
	portID := svc.nextPublisherID
	svc.nextPublisherID++
	inner := connection.NewPublisher(svc.segment.Allocator(), svc.opts.HistorySize)
	svc.publishers[portID] = inner
	svc.reconcilePublisher(portID, inner)

	dyn := svc.handle.Dynamic()
	dyn.AddEndpoint(n.Endpoint(registry.EndpointPublisher, portID))

	return &Publisher{svc: svc, portID: portID, inner: inner}, nil
}

// CreateSubscriber builds a new subscriber port owned by n, connecting
// it to every publisher currently published in the dynamic config.
// Retained history is replayed into it only from publishers created
// through this same handle; publishers of other handles deliver live
// samples only.
func (svc *PublishSubscribe) CreateSubscriber(n *node.Node) (*Subscriber, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.nextSubscriberID >= svc.opts.MaxSubscribers {
		return nil, errs.ErrOutOfCapacity
	}
	portID := svc.nextSubscriberID
	svc.nextSubscriberID++
	state := &subscriberState{
		inner:  connection.NewSubscriber(svc.opts.MaxBorrowed),
		conns:  make(map[uint32]*connection.Connection),
		origin: make(map[shm.PointerOffset]uint32),
	}
	svc.subscribers[portID] = state
	svc.reconcileSubscriber(portID, state)

	dyn := svc.handle.Dynamic()
	dyn.AddEndpoint(n.Endpoint(registry.EndpointSubscriber, portID))

	return &Subscriber{svc: svc, portID: portID, state: state}, nil
}

// Close releases the data segment, connection table and registry
// handle this process holds open; it does not remove them — other
// participants, or a later registry.Remove, own that decision.
func (svc *PublishSubscribe) Close() error {
	if err := svc.connTable.Close(); err != nil {
		return err
	}
	if err := svc.segment.Close(); err != nil {
		return err
	}
	return svc.handle.Close()
}

// Publisher is a publish port created against a PublishSubscribe
// service.
type Publisher struct {
	svc    *PublishSubscribe
	portID uint32
	inner  *connection.Publisher
}

// Loan allocates size bytes from the service's data segment, returning
// an address-independent offset the caller writes the sample into via
// Payload.
func (p *Publisher) Loan(size uint32) (shm.PointerOffset, error) {
	off, err := p.svc.segment.Allocator().Allocate(size)
	if err != nil {
		return shm.PointerOffset{}, err
	}
	return shm.PointerOffset{Offset: off}, nil
}

// Payload returns the writable/readable bytes backing off.
func (p *Publisher) Payload(off shm.PointerOffset) []byte {
	return p.svc.segment.PayloadAt(off.Offset)
}

// Publish fans a loaned sample out to every connected subscriber,
// applying each connection's overflow policy against a full delivery
// queue, and records it in the publisher's history ring. Reconciles
// against the dynamic config first, so a subscriber that attached after
// this publisher was created is picked up lazily rather than missed.
func (p *Publisher) Publish(off shm.PointerOffset, blockTimeout time.Duration) map[uint32]error {
	p.svc.mu.Lock()
	defer p.svc.mu.Unlock()
	p.svc.reconcilePublisher(p.portID, p.inner)
	return p.inner.Publish(off, blockTimeout)
}

// Subscriber is a subscribe port created against a PublishSubscribe
// service.
type Subscriber struct {
	svc    *PublishSubscribe
	portID uint32
	state  *subscriberState
}

// ReceiveAny dequeues the next available sample from any connected
// publisher, in no particular order across publishers. Reconciles
// against the dynamic config first, picking up any publisher that
// attached after this subscriber was created. Returns
// errs.ErrWouldBlock if nothing is pending anywhere.
func (s *Subscriber) ReceiveAny() (shm.PointerOffset, []byte, error) {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()
	s.svc.reconcileSubscriber(s.portID, s.state)

	for pubID, conn := range s.state.conns {
		off, err := s.state.inner.Receive(conn)
		if err == nil {
			s.state.origin[off] = pubID
			return off, s.svc.segment.PayloadAt(off.Offset), nil
		}
	}
	return shm.PointerOffset{}, nil, errs.ErrWouldBlock
}

// Release returns off to the publisher it came from.
func (s *Subscriber) Release(off shm.PointerOffset) {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()

	pubID, ok := s.state.origin[off]
	if !ok {
		return
	}
	delete(s.state.origin, off)
	if conn, ok := s.state.conns[pubID]; ok {
		s.state.inner.Release(conn, off)
	}
	if pub, ok := s.svc.publishers[pubID]; ok {
		if conn, ok := s.state.conns[pubID]; ok {
			pub.ReapReleases(conn)
		}
	}
}
