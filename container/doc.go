// Package container provides small fixed-capacity data structures: no
// heap allocation after construction, plain value semantics. Each holds
// a Go slice allocated at construction, so they are process-local
// values rather than layouts embedded inside a shared-memory segment.
// They back the higher-level connection and event packages.
package container
