package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/model"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	// Instructions is the system prompt sent with every generation.
	Instructions string
	// Description overrides the generated descriptor description.
	Description string
	// FragmentBufferSize sizes the streaming fragment channel.
	FragmentBufferSize int
}

// ModelAgent bridges a model.Model into the core.Agent contract. The inbound
// message becomes the user turn and the rendered conversation history is
// appended to the system instructions, so stateless models still see prior
// turns.
//
// ModelAgent holds no mutable state after construction and is safe for
// concurrent use; the wrapped model is expected to be as well.
type ModelAgent struct {
	BaseAgent
	llm          model.Model
	instructions string
	bufSize      int
}

// NewModelAgent creates a model-backed agent with sensible defaults.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instructions:       fmt.Sprintf("You are %s, a helpful assistant.", name),
		FragmentBufferSize: 32,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:    NewBaseAgent(name, llm.Info().Provider),
		llm:          llm,
		instructions: opts.Instructions,
		bufSize:      opts.FragmentBufferSize,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// buildRequest assembles the normalized model request.
func (a *ModelAgent) buildRequest(message, history string, stream bool) model.Request {
	instructions := a.instructions
	if history != "" {
		instructions = fmt.Sprintf("%s\n\nConversation so far:\n%s", instructions, history)
	}

	return model.Request{
		Instructions: instructions,
		Messages:     []model.ChatMessage{{Role: "user", Content: message}},
		Stream:       stream,
	}
}

// Invoke implements core.Agent. It drives a non-streaming generation and
// returns the final text.
func (a *ModelAgent) Invoke(ctx context.Context, message, history string) (string, error) {
	respCh, errCh := a.llm.Generate(ctx, a.buildRequest(message, history, false))

	var final string
	for resp := range respCh {
		if !resp.Partial {
			final = resp.Text
		}
	}

	if err := <-errCh; err != nil {
		return "", &core.InvocationError{Agent: a.Name(), Err: err}
	}

	return final, nil
}

// InvokeStream implements core.Agent. Partial model responses are forwarded
// as fragments; a model that never emits partials yields its final text as a
// single fragment. An upstream failure mid-stream becomes the error-marker
// fragment and the channel closes normally.
func (a *ModelAgent) InvokeStream(ctx context.Context, message, history string) (<-chan string, error) {
	respCh, errCh := a.llm.Generate(ctx, a.buildRequest(message, history, true))

	out := make(chan string, a.bufSize)

	go func() {
		defer close(out)

		forward := func(text string) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- text:
				return true
			}
		}

		sawPartial := false
		var final string

		for resp := range respCh {
			if resp.Partial {
				sawPartial = true
				if !forward(resp.Text) {
					return
				}
				continue
			}
			final = resp.Text
		}

		if err := <-errCh; err != nil {
			forward(errorMarker(a.Name(), err))
			return
		}

		if !sawPartial && final != "" {
			forward(final)
		}
	}()

	return out, nil
}
