package core

import "context"

// DefaultMessageLimit is the read window applied when GetMessages is called
// with a non-positive limit.
const DefaultMessageLimit = 10

// SummaryWindow is the number of trailing messages rendered by Summarize.
const SummaryWindow = 5

// ThreadRepository stores ordered messages per thread. Implementations must
// be safe under concurrent append/read on the same thread id and must
// preserve per-thread append order; no cross-thread ordering is implied.
//
// StoreMessage creates the thread on first reference. It fails only with a
// *StoreUnavailableError when the backing store is down. Reads on unknown
// threads return empty results, not errors.
type ThreadRepository interface {
	// StoreMessage appends a new message to the named thread and returns it.
	StoreMessage(ctx context.Context, threadID, sender, content string, metadata map[string]any) (Message, error)

	// GetMessages returns the most recent limit messages in chronological
	// order. A non-positive limit selects DefaultMessageLimit.
	GetMessages(threadID string, limit int) ([]Message, error)

	// GetLastN returns the last n messages, or fewer if the thread is shorter.
	GetLastN(threadID string, n int) ([]Message, error)

	// Summarize renders the last SummaryWindow message contents joined by
	// newlines. It returns "" for an empty or unknown thread. This is a
	// bounded context window, not a semantic summary.
	Summarize(threadID string) (string, error)
}
