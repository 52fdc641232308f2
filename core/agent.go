package core

import "context"

// Descriptor is the static identity record for a registered agent. It is
// created at registration time, immutable, and used only for discovery and
// classifier disambiguation, never for invocation.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"` // capability tag, e.g. "openai", "remote", "func"
}

// Agent is the uniform capability every responder satisfies, regardless of
// backing provider. The relay treats agents as opaque and shares them
// read-only across concurrent dispatches; configuration (model selection,
// sampling parameters, credentials) is the agent's own concern.
//
// Invoke blocks until a complete response is available and returns a typed
// *InvocationError on any upstream failure.
//
// InvokeStream returns a lazy, finite, non-restartable channel of text
// fragments in generation order. Fragments may split mid-word or be empty;
// an empty fragment is not a terminator. Concatenating all fragments yields
// the text Invoke would have returned for equivalent input. On upstream
// failure mid-stream the channel yields one final fragment encoding the
// error, then closes; no error escapes the stream itself. The returned
// error covers startup failures only.
type Agent interface {
	Invoke(ctx context.Context, message, history string) (string, error)
	InvokeStream(ctx context.Context, message, history string) (<-chan string, error)
	Descriptor() Descriptor
}
