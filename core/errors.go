package core

import (
	"errors"
	"fmt"
)

// ErrNoAgentAvailable is returned by a dispatch when classification yields no
// match and no default agent is configured. The inbound user message remains
// recorded; no response is generated.
var ErrNoAgentAvailable = errors.New("no agent available to handle message")

// ThreadMismatchError reports an attempt to append a message to a thread with
// a different id. This is a local programming error and fails fast; it is
// never surfaced to end users.
type ThreadMismatchError struct {
	MessageThreadID string
	ThreadID        string
}

func (e *ThreadMismatchError) Error() string {
	return fmt.Sprintf("message thread id %q does not match thread id %q", e.MessageThreadID, e.ThreadID)
}

// StoreUnavailableError reports a conversation store backend failure. Nothing
// partial is recorded for the failing operation.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("conversation store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// UnknownAgentError reports a lookup of a name not present in the registry.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Name)
}

// InvocationError wraps an upstream provider failure during an agent call.
// The cause is preserved for errors.Is/As; agents must not let uncaught
// failures past this boundary.
type InvocationError struct {
	Agent string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent %q invocation failed: %v", e.Agent, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
