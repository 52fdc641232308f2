package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrelay/classifier"
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/memory"
	"github.com/hupe1980/agentrelay/registry"
)

// scriptedAgent replies with a fixed text; the streaming path delivers it as
// pre-chunked fragments.
type scriptedAgent struct {
	name      string
	reply     string
	fragments []string
	invokeErr error
	// blockUntilCancel makes the stream hang after the first fragment until
	// the context is cancelled, simulating a consumer disconnect.
	blockUntilCancel bool
}

func (s *scriptedAgent) Invoke(_ context.Context, _, _ string) (string, error) {
	if s.invokeErr != nil {
		return "", &core.InvocationError{Agent: s.name, Err: s.invokeErr}
	}
	return s.reply, nil
}

func (s *scriptedAgent) InvokeStream(ctx context.Context, _, _ string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for i, f := range s.fragments {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
			if s.blockUntilCancel && i == 0 {
				<-ctx.Done()
				return
			}
		}
	}()
	return out, nil
}

func (s *scriptedAgent) Descriptor() core.Descriptor {
	return core.Descriptor{Name: s.name, Description: "scripted", Type: "test"}
}

func newFixture(defaultAgent string, agents ...*scriptedAgent) (*Orchestrator, *memory.InMemoryRepository) {
	repo := memory.NewInMemoryRepository()
	reg := registry.New()
	for _, a := range agents {
		reg.Register(a)
	}
	clf := classifier.NewKeyword([]classifier.Rule{
		{Pattern: regexp.MustCompile(`\d+d\d+`), Agent: "dice"},
		{Keywords: []string{"npc", "talk"}, Agent: "npc"},
	}, "")
	orch := New(repo, clf, reg, func(o *Options) { o.DefaultAgent = defaultAgent })
	return orch, repo
}

func senders(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Sender
	}
	return out
}

func TestDispatch_RecordsBothSides(t *testing.T) {
	orch, repo := newFixture("narrator", &scriptedAgent{name: "narrator", reply: "A tavern appears."})

	text, err := orch.Dispatch(context.Background(), "t1", "describe the tavern")
	require.NoError(t, err)
	assert.Equal(t, "A tavern appears.", text)

	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"user", "narrator"}, senders(msgs))
	assert.Equal(t, "describe the tavern", msgs[0].Content)
	assert.Equal(t, "A tavern appears.", msgs[1].Content)
}

func TestDispatch_RoutesByRule(t *testing.T) {
	orch, _ := newFixture("narrator",
		&scriptedAgent{name: "narrator", reply: "story"},
		&scriptedAgent{name: "dice", reply: "Rolling 2d6: [3 5] | Total: 8"},
	)

	text, err := orch.Dispatch(context.Background(), "t1", "roll 2d6 for damage")
	require.NoError(t, err)
	assert.Contains(t, text, "Rolling 2d6")
}

func TestDispatch_NoAgentAvailable(t *testing.T) {
	// No rule matches "describe..." and no default is configured.
	orch, repo := newFixture("", &scriptedAgent{name: "dice", reply: "unused"})

	_, err := orch.Dispatch(context.Background(), "t1", "describe the tavern")
	require.ErrorIs(t, err, core.ErrNoAgentAvailable)

	// The inbound message stays recorded; no response was added.
	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Sender)
}

func TestDispatch_InvocationErrorLeavesOnlyUserMessage(t *testing.T) {
	orch, repo := newFixture("narrator", &scriptedAgent{name: "narrator", invokeErr: errors.New("upstream 500")})

	_, err := orch.Dispatch(context.Background(), "t1", "describe the tavern")
	var invErr *core.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "narrator", invErr.Agent)

	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 1)
}

func TestDispatchStream_WordBoundaryUnitsAndRecording(t *testing.T) {
	orch, repo := newFixture("narrator", &scriptedAgent{
		name:      "narrator",
		fragments: []string{"Hel", "lo wor", "ld"},
	})

	units, err := orch.DispatchStream(context.Background(), "t1", "describe the tavern")
	require.NoError(t, err)

	var got []string
	for u := range units {
		got = append(got, u)
	}
	assert.Equal(t, []string{"Hello ", "world"}, got)

	// Recording happens before the unit channel closes.
	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "narrator", msgs[1].Sender)
	assert.Equal(t, "Hello world", msgs[1].Content)
}

func TestDispatchStream_SlowConsumerStillGetsFinalUnit(t *testing.T) {
	// Enough words to fill the default unit buffer before the trailing
	// word is flushed at stream end.
	var fragments []string
	for i := 1; i <= 16; i++ {
		fragments = append(fragments, fmt.Sprintf("w%d ", i))
	}
	fragments = append(fragments, "w17")
	orch, repo := newFixture("narrator", &scriptedAgent{name: "narrator", fragments: fragments})

	units, err := orch.DispatchStream(context.Background(), "t1", "go")
	require.NoError(t, err)

	// Let the producer run far ahead and saturate the buffer.
	time.Sleep(300 * time.Millisecond)

	var got []string
	for u := range units {
		got = append(got, u)
	}
	require.Len(t, got, 17)
	assert.Equal(t, "w17", got[len(got)-1])
	assert.Equal(t, strings.Join(fragments, ""), strings.Join(got, ""))

	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 2)
	assert.Equal(t, strings.Join(fragments, ""), msgs[1].Content)
}

func TestDispatchStream_MidStreamErrorMarkerRecorded(t *testing.T) {
	// Agents encode upstream failure as a final fragment, never a panic.
	orch, repo := newFixture("narrator", &scriptedAgent{
		name:      "narrator",
		fragments: []string{"The story beg", "ins ", "[narrator error: connection reset]"},
	})

	units, err := orch.DispatchStream(context.Background(), "t1", "go on")
	require.NoError(t, err)

	var text strings.Builder
	for u := range units {
		text.WriteString(u)
	}
	assert.Contains(t, text.String(), "[narrator error: connection reset]")

	msgs, _ := repo.GetLastN("t1", 10)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "The story begins")
	assert.Contains(t, msgs[1].Content, "[narrator error: connection reset]")
}

func TestDispatchStream_CancelStillRecordsPartial(t *testing.T) {
	orch, repo := newFixture("narrator", &scriptedAgent{
		name:             "narrator",
		fragments:        []string{"Hello wo", "never delivered"},
		blockUntilCancel: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	units, err := orch.DispatchStream(ctx, "t1", "describe")
	require.NoError(t, err)

	// Read the first unit, then disconnect.
	first := <-units
	assert.Equal(t, "Hello ", first)
	cancel()

	// Channel close signals the dispatch wound down, including recording.
	for range units {
	}

	require.Eventually(t, func() bool {
		msgs, _ := repo.GetLastN("t1", 10)
		return len(msgs) == 2
	}, time.Second, 10*time.Millisecond)

	msgs, _ := repo.GetLastN("t1", 10)
	assert.Equal(t, "Hello wo", msgs[1].Content)
}

type failingRepo struct{}

func (failingRepo) StoreMessage(context.Context, string, string, string, map[string]any) (core.Message, error) {
	return core.Message{}, &core.StoreUnavailableError{Err: errors.New("backend down")}
}
func (failingRepo) GetMessages(string, int) ([]core.Message, error) { return nil, nil }
func (failingRepo) GetLastN(string, int) ([]core.Message, error)    { return nil, nil }
func (failingRepo) Summarize(string) (string, error)                { return "", nil }

func TestDispatch_StoreUnavailableIsFatal(t *testing.T) {
	reg := registry.New()
	reg.Register(&scriptedAgent{name: "narrator", reply: "unused"})
	orch := New(failingRepo{}, classifier.NewKeyword(nil, "narrator"), reg)

	_, err := orch.Dispatch(context.Background(), "t1", "hello")
	var storeErr *core.StoreUnavailableError
	require.ErrorAs(t, err, &storeErr)
}

func TestDispatchStream_ParallelThreadsDoNotInterfere(t *testing.T) {
	orch, repo := newFixture("narrator", &scriptedAgent{
		name:      "narrator",
		fragments: []string{"one two ", "three"},
	})

	const threads = 6
	done := make(chan string, threads)
	for i := 0; i < threads; i++ {
		go func(i int) {
			id := fmt.Sprintf("thread-%d", i)
			units, err := orch.DispatchStream(context.Background(), id, "go")
			if err != nil {
				done <- ""
				return
			}
			for range units {
			}
			done <- id
		}(i)
	}
	for i := 0; i < threads; i++ {
		id := <-done
		require.NotEmpty(t, id)
		msgs, _ := repo.GetLastN(id, 10)
		require.Len(t, msgs, 2)
		assert.Equal(t, "one two three", msgs[1].Content)
	}
}
