package agent

import (
	"context"

	"github.com/hupe1980/agentrelay/core"
)

// HandlerFunc is the implementation signature for a FuncAgent. It receives
// the inbound message and the rendered conversation history and returns the
// complete response text.
type HandlerFunc func(ctx context.Context, message, history string) (string, error)

// FuncAgentOptions configures a FuncAgent instance.
type FuncAgentOptions struct {
	Description string
}

// FuncAgent exposes a plain Go function as an agent. It is the simplest way
// to add deterministic responders (dice rollers, lookups, canned replies) to
// a registry without involving a language model.
//
// A FuncAgent has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FuncAgent struct {
	BaseAgent
	fn HandlerFunc
}

// NewFuncAgent constructs a FuncAgent from a name and handler function.
func NewFuncAgent(name string, fn HandlerFunc, optFns ...func(o *FuncAgentOptions)) *FuncAgent {
	opts := FuncAgentOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &FuncAgent{
		BaseAgent: NewBaseAgent(name, "func"),
		fn:        fn,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// Invoke implements core.Agent.
func (a *FuncAgent) Invoke(ctx context.Context, message, history string) (string, error) {
	result, err := a.fn(ctx, message, history)
	if err != nil {
		return "", &core.InvocationError{Agent: a.Name(), Err: err}
	}

	return result, nil
}

// InvokeStream implements core.Agent. The handler runs to completion and its
// result is emitted as a single fragment; a handler error becomes the
// error-marker fragment.
func (a *FuncAgent) InvokeStream(ctx context.Context, message, history string) (<-chan string, error) {
	out := make(chan string, 1)

	go func() {
		defer close(out)

		result, err := a.fn(ctx, message, history)
		if err != nil {
			result = errorMarker(a.Name(), err)
		}

		select {
		case <-ctx.Done():
		case out <- result:
		}
	}()

	return out, nil
}
