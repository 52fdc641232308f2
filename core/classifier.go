package core

import "context"

// NoMatch is the sentinel a Classifier returns when no registered agent
// should handle the message.
const NoMatch = "no_match"

// Classifier decides which registered agent should handle a message given a
// rendered slice of recent thread context. Implementations must return either
// a name currently present in the registry or NoMatch; they must never return
// a name that does not resolve.
type Classifier interface {
	Classify(ctx context.Context, message, history string) (string, error)
}
