// Package logging provides a tiny abstraction over slog so relay packages
// can depend on a minimal interface (Logger) while callers plug in any
// structured logger. A richer RelayLogger adds contextual helpers
// (component, thread, dispatch) plus domain logging for dispatches and
// model calls.
package logging
