// Package session provides a manager that serializes snapshot persistence
// per session id, with optional distributed locking for multi-replica hosts.
package session
