package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestThread_AppendRejectsMismatchedThreadID(t *testing.T) {
	th := NewThread("t1")
	msg := NewMessage("other", "user", "hello", nil)

	err := th.Append(msg)
	if err == nil {
		t.Fatalf("expected thread mismatch error")
	}
	var mismatch *ThreadMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ThreadMismatchError, got %T", err)
	}
	if mismatch.MessageThreadID != "other" || mismatch.ThreadID != "t1" {
		t.Fatalf("unexpected mismatch detail: %#v", mismatch)
	}
	if th.Len() != 0 {
		t.Fatalf("message must not be appended on mismatch, len=%d", th.Len())
	}
}

func TestThread_LastNAndRender(t *testing.T) {
	th := NewThread("t2")
	for i := 0; i < 7; i++ {
		if err := th.Append(NewMessage("t2", "user", fmt.Sprintf("m%d", i), nil)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	last := th.LastN(3)
	if len(last) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(last))
	}
	if last[0].Content != "m4" || last[2].Content != "m6" {
		t.Fatalf("unexpected window: %q .. %q", last[0].Content, last[2].Content)
	}

	// Requesting more than stored returns the whole log.
	if got := th.LastN(100); len(got) != 7 {
		t.Fatalf("expected 7, got %d", len(got))
	}

	if got := th.Render(2); got != "m5\nm6" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestThread_TrimKeepsNewest(t *testing.T) {
	th := NewThread("t3")
	for i := 0; i < 10; i++ {
		_ = th.Append(NewMessage("t3", "user", fmt.Sprintf("m%d", i), nil))
	}
	th.Trim(4)
	msgs := th.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 after trim, got %d", len(msgs))
	}
	if msgs[0].Content != "m6" || msgs[3].Content != "m9" {
		t.Fatalf("trim kept wrong window: %q .. %q", msgs[0].Content, msgs[3].Content)
	}
	// Zero disables trimming.
	th.Trim(0)
	if th.Len() != 4 {
		t.Fatalf("trim(0) must be a no-op")
	}
}

func TestThread_ParticipantsAdvisory(t *testing.T) {
	th := NewThread("t4")
	_ = th.Append(NewMessage("t4", "user", "hi", nil))
	_ = th.Append(NewMessage("t4", "narrator", "hello", nil))
	_ = th.Append(NewMessage("t4", "user", "again", nil))

	got := th.Participants()
	if len(got) != 2 || got[0] != "user" || got[1] != "narrator" {
		t.Fatalf("unexpected participants: %v", got)
	}

	// The returned slice is a copy; mutating it leaves the thread intact.
	got[0] = "imposter"
	if again := th.Participants(); again[0] != "user" {
		t.Fatalf("participants leaked internal state: %v", again)
	}
}

func TestThread_ParticipantsSafeDuringAppends(t *testing.T) {
	th := NewThread("t6")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = th.Append(NewMessage("t6", fmt.Sprintf("sender%d", i), "hi", nil))
		}(i)
	}
	for i := 0; i < 20; i++ {
		_ = th.Participants()
		_ = th.Metadata()
	}
	wg.Wait()
	if len(th.Participants()) != 20 {
		t.Fatalf("expected 20 participants, got %d", len(th.Participants()))
	}
}

func TestThread_MetadataCopies(t *testing.T) {
	th := NewThread("t7")
	th.SetMetadata("channel", "tavern")

	md := th.Metadata()
	if md["channel"] != "tavern" {
		t.Fatalf("unexpected metadata: %v", md)
	}
	md["channel"] = "dungeon"
	if th.Metadata()["channel"] != "tavern" {
		t.Fatalf("metadata leaked internal state: %v", th.Metadata())
	}
}

func TestThread_ConcurrentAppend(t *testing.T) {
	th := NewThread("t5")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := th.Append(NewMessage("t5", "user", fmt.Sprintf("m%d", i), nil)); err != nil {
				t.Errorf("append error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if th.Len() != 50 {
		t.Fatalf("expected 50 messages, got %d", th.Len())
	}
}
