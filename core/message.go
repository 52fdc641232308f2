package core

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single utterance within a conversation thread. Messages are
// immutable once appended to a thread; mutating a Message after StoreMessage
// has accepted it is a programming error.
type Message struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	Sender    string         `json:"sender"` // "user", "system", or an agent name
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage constructs a Message bound to a thread with a generated ID and
// a UTC timestamp.
func NewMessage(threadID, sender, content string, metadata map[string]any) Message {
	return Message{
		ID:        NewID(),
		ThreadID:  threadID,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// NewID generates a unique identifier used for messages and dispatches.
func NewID() string { return uuid.NewString() }
