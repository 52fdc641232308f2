// Package memory provides the in-process, volatile ThreadRepository used as
// the default conversation store. It lives for the process lifetime and is
// safe for concurrent use; swap in a durable implementation for production.
package memory
