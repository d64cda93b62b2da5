// Package monitor implements per-node liveness detection: each process
// creates a lock-file at a well-known path and holds an advisory
// exclusive write-lock on it for its entire lifetime. A watcher in any
// other process distinguishes Alive/Dead/DoesNotExist/InInitialization
// purely from the file's existence, permission bits, and lock state —
// no heartbeat or IPC call to the monitored process is needed. Grounded
// on original_source/iceoryx2-bb/posix/src/process_state.rs's
// create-then-lock-then-finalize protocol.
package monitor
