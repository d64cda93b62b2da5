// Package dynamicstorage provides named, type-erased shared-memory
// cells used for service metadata: a creator allocates the segment,
// writes the initial value, then flips a state word from initializing
// to ready so that a concurrent opener never observes a half-written
// value. Grounded on
// original_source/iceoryx2-cal/src/dynamic_storage/process_local.rs,
// adapted from an in-process Arc<dyn Any> registry to a cross-process
// shared-memory segment plus explicit state machine.
package dynamicstorage
