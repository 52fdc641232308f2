package core

import (
	"strings"
	"sync"
	"time"
)

// Thread is an ordered, append-only log of Messages sharing one thread id.
// It is safe for concurrent access.
//
// Contract:
//   - Append rejects messages whose ThreadID differs (ThreadMismatchError)
//   - Messages / LastN / Participants / Metadata return defensive copies
//   - Render joins the last n message contents with newlines
type Thread struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu           sync.RWMutex
	messages     []Message
	participants []string
	metadata     map[string]string
}

// NewThread creates an empty thread with the given id.
func NewThread(id string) *Thread {
	return &Thread{ID: id, CreatedAt: time.Now().UTC(), metadata: map[string]string{}}
}

// Append adds a message to the thread. The message must carry this thread's
// id; on mismatch nothing is appended and a *ThreadMismatchError is returned.
func (t *Thread) Append(msg Message) error {
	if msg.ThreadID != t.ID {
		return &ThreadMismatchError{MessageThreadID: msg.ThreadID, ThreadID: t.ID}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	t.addParticipantLocked(msg.Sender)
	return nil
}

func (t *Thread) addParticipantLocked(sender string) {
	for _, p := range t.participants {
		if p == sender {
			return
		}
	}
	t.participants = append(t.participants, sender)
}

// Participants returns the senders seen so far, in first-appearance order.
// Participants are advisory only and carry no routing semantics.
func (t *Thread) Participants() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.participants))
	copy(out, t.participants)
	return out
}

// SetMetadata attaches an advisory key/value pair to the thread.
func (t *Thread) SetMetadata(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.metadata == nil {
		t.metadata = map[string]string{}
	}
	t.metadata[key] = value
}

// Metadata returns a copy of the thread's metadata.
func (t *Thread) Metadata() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

// Trim drops the oldest messages so that at most max remain. A max of zero
// or less leaves the thread unbounded.
func (t *Thread) Trim(max int) {
	if max <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) <= max {
		return
	}
	// Reslice into a fresh backing array so evicted messages can be collected.
	trimmed := make([]Message, max)
	copy(trimmed, t.messages[len(t.messages)-max:])
	t.messages = trimmed
}

// Messages returns a copy of the full message log in append order.
func (t *Thread) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msgs := make([]Message, len(t.messages))
	copy(msgs, t.messages)
	return msgs
}

// LastN returns the most recent n messages in chronological order, or fewer
// if the thread is shorter.
func (t *Thread) LastN(n int) []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n > len(t.messages) {
		n = len(t.messages)
	}
	if n <= 0 {
		return []Message{}
	}
	msgs := make([]Message, n)
	copy(msgs, t.messages[len(t.messages)-n:])
	return msgs
}

// Len returns the number of messages currently in the thread.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Render concatenates the contents of the last n messages, newline-joined.
// This is a bounded context window, not a semantic summary.
func (t *Thread) Render(n int) string {
	msgs := t.LastN(n)
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n")
}
