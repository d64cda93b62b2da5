// Package event implements the notifier/listener signalling channel:
// a bounded set of pending event ids, coalesced so that repeated
// notifications for an id that the listener has not yet observed
// collapse into one, with try/timed/blocking wait variants. Channel
// waits on a sync.Cond and so works within one process only; Table
// keeps a pending-id set in named shared memory for ends in different
// processes. A MultiListener scans every attached channel on each
// wait. Grounded on
// original_source/iceoryx2-cal/src/event/process_local.rs's
// condition-variable-plus-bounded-queue design.
package event
