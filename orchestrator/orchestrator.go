package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/stream"
)

// Registry is the agent resolution surface the orchestrator needs.
type Registry interface {
	Lookup(name string) (core.Agent, error)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// DefaultAgent is the fallback routing target when classification
	// yields no valid match. Empty means dispatches without a match fail
	// with core.ErrNoAgentAvailable.
	DefaultAgent string
	// ContextWindow is the number of recent messages rendered as
	// classification context.
	ContextWindow int
	// UnitBufferSize sets channel buffering for streamed output units.
	UnitBufferSize int
	// Logger receives dispatch lifecycle logs.
	Logger logging.Logger
}

// Orchestrator is the top-level dispatch entry point. It holds no per-thread
// state of its own; the repository and registry are the only shared mutable
// resources, so dispatches for unrelated threads run fully concurrently.
type Orchestrator struct {
	repo       core.ThreadRepository
	classifier core.Classifier
	registry   Registry

	defaultAgent   string
	contextWindow  int
	unitBufferSize int
	logger         logging.Logger
}

// New constructs an Orchestrator with optional overrides.
func New(repo core.ThreadRepository, clf core.Classifier, reg Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		ContextWindow:  core.SummaryWindow,
		UnitBufferSize: 16,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		repo:           repo,
		classifier:     clf,
		registry:       reg,
		defaultAgent:   opts.DefaultAgent,
		contextWindow:  opts.ContextWindow,
		unitBufferSize: opts.UnitBufferSize,
		logger:         opts.Logger,
	}
}

// Dispatch routes a message synchronously: the inbound message is recorded,
// classified, handed to the resolved agent, and the complete response is
// recorded under the agent's name before being returned.
func (o *Orchestrator) Dispatch(ctx context.Context, threadID, message string) (string, error) {
	start := time.Now()

	agent, history, err := o.prepare(ctx, threadID, message)
	if err != nil {
		return "", err
	}
	name := agent.Descriptor().Name

	text, err := agent.Invoke(ctx, message, history)
	if err != nil {
		o.logger.Error("dispatch invoke failed", "thread_id", threadID, "agent", name, "error", err)
		return "", err
	}

	if _, err := o.repo.StoreMessage(ctx, threadID, name, text, nil); err != nil {
		return "", fmt.Errorf("failed to record agent response: %w", err)
	}

	o.logger.Debug("dispatch complete", "thread_id", threadID, "agent", name, "duration", time.Since(start))

	return text, nil
}

// DispatchStream routes a message as a stream of word-boundary-safe output
// units. The returned channel is closed when the upstream stream ends, fails,
// or the context is cancelled. Whatever text was assembled by then, including
// a trailing error marker from the agent, is recorded under the agent's name;
// cancellation stops forwarding but never discards already-assembled text.
func (o *Orchestrator) DispatchStream(ctx context.Context, threadID, message string) (<-chan string, error) {
	agent, history, err := o.prepare(ctx, threadID, message)
	if err != nil {
		return nil, err
	}
	name := agent.Descriptor().Name

	fragments, err := agent.InvokeStream(ctx, message, history)
	if err != nil {
		o.logger.Error("dispatch stream start failed", "thread_id", threadID, "agent", name, "error", err)
		return nil, err
	}

	units := make(chan string, o.unitBufferSize)

	go func() {
		defer close(units)

		var agg stream.Aggregator
		var full strings.Builder

		forward := func(unit string) bool {
			full.WriteString(unit)
			select {
			case units <- unit:
				return true
			case <-ctx.Done():
				return false
			}
		}

	drain:
		for {
			select {
			case <-ctx.Done():
				break drain
			case fragment, ok := <-fragments:
				if !ok {
					break drain
				}
				if unit, emit := agg.Push(fragment); emit {
					if !forward(unit) {
						break drain
					}
				}
			}
		}

		if unit, emit := agg.Flush(); emit {
			if ctx.Err() == nil {
				// A full buffer only means the consumer is behind; wait for
				// it so the final unit is never lost.
				forward(unit)
			} else {
				// After cancellation nothing more reaches the sink; the
				// flushed text still counts for recording.
				full.WriteString(unit)
			}
		}

		if full.Len() == 0 {
			return
		}
		// Record the reassembled response even when the caller cancelled
		// mid-stream.
		recordCtx := context.WithoutCancel(ctx)
		if _, err := o.repo.StoreMessage(recordCtx, threadID, name, full.String(), nil); err != nil {
			o.logger.Error("failed to record streamed response", "thread_id", threadID, "agent", name, "error", err)
		}
	}()

	return units, nil
}

// prepare runs the shared head of both dispatch paths: record the user
// message, render classification context, classify, and resolve the agent.
func (o *Orchestrator) prepare(ctx context.Context, threadID, message string) (core.Agent, string, error) {
	if _, err := o.repo.StoreMessage(ctx, threadID, "user", message, nil); err != nil {
		return nil, "", fmt.Errorf("failed to record user message: %w", err)
	}

	history := o.renderContext(threadID)

	name, err := o.classifier.Classify(ctx, message, history)
	if err != nil {
		return nil, "", fmt.Errorf("classification failed: %w", err)
	}

	agent, err := o.resolve(name)
	if err != nil {
		return nil, "", err
	}

	o.logger.Debug("agent selected", "thread_id", threadID, "agent", agent.Descriptor().Name)

	return agent, history, nil
}

// resolve maps classifier output to an agent, falling back to the configured
// default for the sentinel or a name that no longer resolves.
func (o *Orchestrator) resolve(name string) (core.Agent, error) {
	if name != core.NoMatch {
		agent, err := o.registry.Lookup(name)
		if err == nil {
			return agent, nil
		}
		var unknown *core.UnknownAgentError
		if !errors.As(err, &unknown) {
			return nil, err
		}
	}
	if o.defaultAgent == "" {
		return nil, core.ErrNoAgentAvailable
	}
	agent, err := o.registry.Lookup(o.defaultAgent)
	if err != nil {
		return nil, core.ErrNoAgentAvailable
	}
	return agent, nil
}

// renderContext renders the last contextWindow messages as "sender: content"
// lines for the classifier. Context rendering is best effort; an unreadable
// thread yields empty context, not a failed dispatch.
func (o *Orchestrator) renderContext(threadID string) string {
	msgs, err := o.repo.GetLastN(threadID, o.contextWindow)
	if err != nil || len(msgs) == 0 {
		return ""
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}
	return strings.Join(lines, "\n")
}
