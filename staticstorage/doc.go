// Package staticstorage implements create-once, effectively immutable
// shared files: a creator writes content while the file is still
// writable, then flips its permissions to read-only to publish it.
// Any later writer attempt fails at the OS level rather than relying
// on application discipline. Used for service configuration blobs
// that must never change once another process has opened them.
package staticstorage
