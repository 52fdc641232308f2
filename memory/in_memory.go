package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/agentrelay/core"
)

// Options configures an InMemoryRepository.
type Options struct {
	// MaxMessagesPerThread bounds per-thread retention; once exceeded the
	// oldest messages are evicted. Zero means unbounded.
	MaxMessagesPerThread int
}

// InMemoryRepository is a process-local core.ThreadRepository. Threads are
// created lazily on first reference and never deleted. The outer lock guards
// only the thread map; each thread carries its own lock, so appends and reads
// on distinct threads do not serialize against each other.
type InMemoryRepository struct {
	mu      sync.RWMutex
	threads map[string]*core.Thread

	maxPerThread int
}

// NewInMemoryRepository constructs an empty repository with optional
// overrides.
func NewInMemoryRepository(optFns ...func(o *Options)) *InMemoryRepository {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryRepository{
		threads:      make(map[string]*core.Thread),
		maxPerThread: opts.MaxMessagesPerThread,
	}
}

// StoreMessage creates and appends a message to the named thread, creating
// the thread if absent. The in-memory backend is always available, so the
// StoreUnavailable path is never taken here.
func (r *InMemoryRepository) StoreMessage(_ context.Context, threadID, sender, content string, metadata map[string]any) (core.Message, error) {
	th := r.thread(threadID)
	msg := core.NewMessage(threadID, sender, content, metadata)
	if err := th.Append(msg); err != nil {
		return core.Message{}, err
	}
	th.Trim(r.maxPerThread)
	return msg, nil
}

// GetMessages returns the most recent limit messages in chronological order.
// Unknown threads yield an empty slice, not an error.
func (r *InMemoryRepository) GetMessages(threadID string, limit int) ([]core.Message, error) {
	if limit <= 0 {
		limit = core.DefaultMessageLimit
	}
	return r.GetLastN(threadID, limit)
}

// GetLastN returns the last n messages, or fewer if the thread is shorter.
func (r *InMemoryRepository) GetLastN(threadID string, n int) ([]core.Message, error) {
	th, ok := r.lookup(threadID)
	if !ok {
		return []core.Message{}, nil
	}
	return th.LastN(n), nil
}

// Summarize renders the trailing context window for the thread.
func (r *InMemoryRepository) Summarize(threadID string) (string, error) {
	th, ok := r.lookup(threadID)
	if !ok {
		return "", nil
	}
	return th.Render(core.SummaryWindow), nil
}

// Thread returns the live thread for id, creating it if absent. Exposed for
// callers that need participant or metadata access beyond the repository
// contract.
func (r *InMemoryRepository) Thread(threadID string) *core.Thread {
	return r.thread(threadID)
}

func (r *InMemoryRepository) lookup(threadID string) (*core.Thread, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	th, ok := r.threads[threadID]
	return th, ok
}

func (r *InMemoryRepository) thread(threadID string) *core.Thread {
	if th, ok := r.lookup(threadID); ok {
		return th
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if th, ok := r.threads[threadID]; ok {
		return th
	}
	th := core.NewThread(threadID)
	r.threads[threadID] = th
	return th
}
