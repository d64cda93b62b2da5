// Package registry binds a service name to its static configuration
// (published once, read-only, via staticstorage) and its dynamic
// configuration (a live endpoint-descriptor table, via
// dynamicstorage), mediating the create/open race between processes
// that discover a service concurrently. Grounded on spec.md §4.I and
// original_source/iceoryx2-services/discovery/src/service_discovery/service.rs's
// create/open/sync shape, adapted from a pub/sub discovery service to
// the registry's own direct static+dynamic storage pairing.
package registry
