package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/agentrelay/core"
)

// Interface compliance (compile-time assertion)
var _ core.ThreadRepository = (*InMemoryRepository)(nil)

func TestInMemoryRepository_StoreAndReadOrder(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := repo.StoreMessage(ctx, "t1", "user", fmt.Sprintf("m%d", i), nil); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	// Default read window.
	msgs, err := repo.GetMessages("t1", 0)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(msgs) != core.DefaultMessageLimit {
		t.Fatalf("expected %d messages, got %d", core.DefaultMessageLimit, len(msgs))
	}
	if msgs[0].Content != "m2" || msgs[len(msgs)-1].Content != "m11" {
		t.Fatalf("unexpected window: %q .. %q", msgs[0].Content, msgs[len(msgs)-1].Content)
	}

	last, _ := repo.GetLastN("t1", 3)
	if len(last) != 3 || last[2].Content != "m11" {
		t.Fatalf("unexpected last-n: %#v", last)
	}
}

func TestInMemoryRepository_UnknownThreadReadsAreEmpty(t *testing.T) {
	repo := NewInMemoryRepository()

	msgs, err := repo.GetMessages("nope", 5)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty read, got %v / %v", msgs, err)
	}
	summary, err := repo.Summarize("nope")
	if err != nil || summary != "" {
		t.Fatalf("expected empty summary, got %q / %v", summary, err)
	}
}

func TestInMemoryRepository_SummarizeIsLastFiveNewlineJoined(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, _ = repo.StoreMessage(ctx, "t2", "user", fmt.Sprintf("m%d", i), nil)
	}

	summary, err := repo.Summarize("t2")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary != "m3\nm4\nm5\nm6\nm7" {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestInMemoryRepository_RetentionBound(t *testing.T) {
	repo := NewInMemoryRepository(func(o *Options) { o.MaxMessagesPerThread = 3 })
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, _ = repo.StoreMessage(ctx, "t3", "user", fmt.Sprintf("m%d", i), nil)
	}

	msgs, _ := repo.GetLastN("t3", 100)
	if len(msgs) != 3 {
		t.Fatalf("expected retention bound of 3, got %d", len(msgs))
	}
	if msgs[0].Content != "m7" || msgs[2].Content != "m9" {
		t.Fatalf("retention kept wrong window: %q .. %q", msgs[0].Content, msgs[2].Content)
	}
}

func TestInMemoryRepository_ThreadAccessorSafeDuringStores(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	th := repo.Thread("t4")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.StoreMessage(ctx, "t4", fmt.Sprintf("sender%d", i), "hi", nil)
		}(i)
	}
	// Live-thread reads race the stores above; the accessors must stay
	// consistent throughout.
	for i := 0; i < 10; i++ {
		_ = th.Participants()
	}
	wg.Wait()

	if got := len(th.Participants()); got != 10 {
		t.Fatalf("expected 10 participants, got %d", got)
	}
}

func TestInMemoryRepository_ConcurrentStoreNoDrops(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	const callers, perCaller = 8, 25
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				if _, err := repo.StoreMessage(ctx, "shared", "user", fmt.Sprintf("c%d-m%d", c, i), nil); err != nil {
					t.Errorf("store error: %v", err)
				}
				// Interleaved reads must never observe a partial message.
				msgs, err := repo.GetLastN("shared", 5)
				if err != nil {
					t.Errorf("read error: %v", err)
				}
				for _, m := range msgs {
					if m.Content == "" || m.ThreadID != "shared" {
						t.Errorf("observed partial message: %#v", m)
					}
				}
			}
		}(c)
	}
	wg.Wait()

	msgs, _ := repo.GetLastN("shared", callers*perCaller+1)
	if len(msgs) != callers*perCaller {
		t.Fatalf("dropped messages under concurrency: got %d want %d", len(msgs), callers*perCaller)
	}
}
