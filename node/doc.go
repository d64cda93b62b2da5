// Package node owns a process's registration in the liveness lattice:
// a generated node id and the monitor lock-file backing it. Every
// publisher, subscriber, notifier, and listener created by a process
// belongs to exactly one Node, and Node.Close runs the orderly-shutdown
// path that lets other processes' registry.Cleanup calls recognize the
// process as gone instead of merely unresponsive.
package node
