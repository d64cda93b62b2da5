// Package errs defines the error taxonomy shared across every coordination
// component: resource-exhaustion, compatibility, liveness, timing, platform,
// and contract-violation errors, per spec.md §7.
//
// Resource-exhausted and timing conditions reuse the ecosystem's existing
// semantic-error vocabulary from code.hybscloud.com/iox rather than
// inventing a parallel one: ErrWouldBlock is a direct alias of
// iox.ErrWouldBlock so that callers already using iox.IsWouldBlock on
// lock-free queues get the same answer from shared-memory coordination
// errors.
package errs

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-blocking operation could not proceed
// immediately (queue full/empty, allocator exhausted under a non-blocking
// policy). Alias of iox.ErrWouldBlock for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// Resource-exhausted (§7.1).
var (
	ErrOutOfCapacity  = errors.New("iceoryx2: container at capacity")
	ErrOutOfMemory    = errors.New("iceoryx2: allocator out of memory")
	ErrSizeTooLarge   = errors.New("iceoryx2: layout exceeds bucket size")
	ErrAlignmentFail  = errors.New("iceoryx2: layout exceeds configured alignment")
	ErrExhausted      = errors.New("iceoryx2: unique-index set exhausted")
	ErrUnreceivable   = errors.New("iceoryx2: sample could not be delivered under configured policy")
	ErrExceedsBorrows = errors.New("iceoryx2: receive would exceed max borrowed samples")

	// ErrFailedToDeliverSignal indicates a notifier could not enqueue a new,
	// distinct event id because the listener's pending set was already at
	// capacity — the notification is dropped rather than blocking the
	// notifier, per spec.md §4.G.
	ErrFailedToDeliverSignal = errors.New("iceoryx2: event pending-set at capacity, signal dropped")
)

// Compatibility (§7.2).
var (
	ErrIncompatibleTypes      = errors.New("iceoryx2: type fingerprint mismatch")
	ErrIncompatiblePattern    = errors.New("iceoryx2: messaging pattern mismatch")
	ErrInsufficientCapacities = errors.New("iceoryx2: existing service capacities below request")
	ErrEventIdOutOfBounds     = errors.New("iceoryx2: event id exceeds configured maximum")
)

// Liveness (§7.3) — surfaced only when no peer remains reachable; otherwise
// absorbed by cleanup paths.
var (
	ErrPeerDead    = errors.New("iceoryx2: peer process is dead")
	ErrNoPeerAlive = errors.New("iceoryx2: no reachable peer")
)

// Timing (§7.4) — not errors in the failure sense, but returned alongside
// an error value so callers can errors.Is against a stable sentinel.
var ErrTimeout = errors.New("iceoryx2: deadline expired")

// Platform (§7.5).
var (
	ErrNotFound           = errors.New("iceoryx2: not found")
	ErrAlreadyExists      = errors.New("iceoryx2: already exists")
	ErrPermissionDenied   = errors.New("iceoryx2: permission denied")
	ErrInterrupted        = errors.New("iceoryx2: interrupted")
	ErrOutOfResources     = errors.New("iceoryx2: platform resource exhausted")
	ErrUnknownPlatform    = errors.New("iceoryx2: unclassified platform error")
	ErrClockUnavailable   = errors.New("iceoryx2: requested clock type unavailable on this platform")
	ErrDoesNotExist       = errors.New("iceoryx2: does not exist")
	ErrVersionMismatch    = errors.New("iceoryx2: version mismatch")
	ErrInitNotFinalized   = errors.New("iceoryx2: initialization not yet finalized")
	ErrInternal           = errors.New("iceoryx2: internal error")
)

// Contract-violation (§7.6) — cheaply-checkable invariant violations that
// would panic in a debug build; release builds return this distinctive
// error instead of propagating undefined behavior silently.
var ErrContractViolation = errors.New("iceoryx2: contract violation")

// Corrupted (§7, "Static/dynamic storage corruption") is fatal for the
// service instance that observes it.
var ErrCorrupted = errors.New("iceoryx2: magic or version mismatch — storage corrupted")

// IsWouldBlock reports whether err is the non-blocking "try again" signal.
// Delegates to iox.IsWouldBlock for wrapped-error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// Wrap annotates err with a component-scoped message while preserving
// errors.Is/As compatibility with the taxonomy sentinels above.
func Wrap(component, msg string, err error) error {
	return fmt.Errorf("iceoryx2: %s: %s: %w", component, msg, err)
}
