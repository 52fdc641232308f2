package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrelay/core"
)

var (
	_ core.Agent = (*FuncAgent)(nil)
	_ core.Agent = (*ModelAgent)(nil)
	_ core.Agent = (*RemoteAgent)(nil)
)

func TestBaseAgentDescriptor(t *testing.T) {
	b := NewBaseAgent("echo", "func")

	d := b.Descriptor()
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, "Agent echo", d.Description)
	assert.Equal(t, "func", d.Type)

	b.SetDescription("Echoes the input back")
	assert.Equal(t, "Echoes the input back", b.Descriptor().Description)
}

func TestFuncAgentInvoke(t *testing.T) {
	a := NewFuncAgent("echo", func(_ context.Context, message, _ string) (string, error) {
		return "echo: " + message, nil
	})

	result, err := a.Invoke(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", result)
}

func TestFuncAgentInvokeError(t *testing.T) {
	cause := errors.New("boom")
	a := NewFuncAgent("broken", func(_ context.Context, _, _ string) (string, error) {
		return "", cause
	})

	_, err := a.Invoke(context.Background(), "hello", "")
	require.Error(t, err)

	var invErr *core.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "broken", invErr.Agent)
	assert.ErrorIs(t, err, cause)
}

func TestFuncAgentInvokeStream(t *testing.T) {
	a := NewFuncAgent("echo", func(_ context.Context, message, _ string) (string, error) {
		return "echo: " + message, nil
	})

	fragments, err := a.InvokeStream(context.Background(), "hello", "")
	require.NoError(t, err)

	var collected []string
	for f := range fragments {
		collected = append(collected, f)
	}

	assert.Equal(t, []string{"echo: hello"}, collected)
}

func TestFuncAgentInvokeStreamError(t *testing.T) {
	a := NewFuncAgent("broken", func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("boom")
	})

	fragments, err := a.InvokeStream(context.Background(), "hello", "")
	require.NoError(t, err)

	var collected []string
	for f := range fragments {
		collected = append(collected, f)
	}

	require.Len(t, collected, 1)
	assert.Equal(t, "[broken error: boom]", collected[0])
}

func TestFuncAgentSeesHistory(t *testing.T) {
	var seen string
	a := NewFuncAgent("recorder", func(_ context.Context, _, history string) (string, error) {
		seen = history
		return "ok", nil
	})

	_, err := a.Invoke(context.Background(), "next", "alice: first\nbob: second")
	require.NoError(t, err)
	assert.True(t, strings.Contains(seen, "alice: first"))
}

func TestFuncAgentOptions(t *testing.T) {
	a := NewFuncAgent("dice", func(_ context.Context, _, _ string) (string, error) {
		return "4", nil
	}, func(o *FuncAgentOptions) {
		o.Description = "Rolls dice"
	})

	assert.Equal(t, "Rolls dice", a.Descriptor().Description)
	assert.Equal(t, "func", a.Descriptor().Type)
}
