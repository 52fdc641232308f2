package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentrelay/core"
)

// Registry is the subset of agent discovery the delegated classifier needs.
type Registry interface {
	Lookup(name string) (core.Agent, error)
	List() []core.Descriptor
}

// LLMOptions configures an LLM classifier.
type LLMOptions struct {
	// DefaultAgent is returned whenever the classifier agent's output does
	// not validate against the registry. Empty means fall through to
	// core.NoMatch.
	DefaultAgent string
}

// LLM delegates classification to a designated classifier agent. The agent
// is invoked exactly once per Classify call with the candidate descriptors
// rendered into the prompt; its output is normalized and validated against
// the registry. Any unknown name, sentinel, empty answer, or invocation
// failure falls back to the configured default. A registered name returned
// by the agent is trusted verbatim, with no further heuristics.
type LLM struct {
	agent        core.Agent
	registry     Registry
	defaultAgent string
}

// NewLLM constructs a delegated classifier over the given classifier agent
// and registry.
func NewLLM(agent core.Agent, registry Registry, optFns ...func(o *LLMOptions)) *LLM {
	opts := LLMOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLM{agent: agent, registry: registry, defaultAgent: opts.DefaultAgent}
}

// Classify implements core.Classifier.
func (l *LLM) Classify(ctx context.Context, message, history string) (string, error) {
	prompt := l.buildPrompt(message)
	answer, err := l.agent.Invoke(ctx, prompt, history)
	if err != nil {
		// A classifier-agent failure is recovered locally, never surfaced.
		return l.fallback(), nil
	}
	name := normalize(answer)
	if name == "" || name == core.NoMatch || strings.EqualFold(name, "null") {
		return l.fallback(), nil
	}
	if _, err := l.registry.Lookup(name); err != nil {
		return l.fallback(), nil
	}
	return name, nil
}

// fallback returns the configured default only while it still resolves;
// a stale default degrades to the sentinel rather than a dead name.
func (l *LLM) fallback() string {
	if l.defaultAgent != "" {
		if _, err := l.registry.Lookup(l.defaultAgent); err == nil {
			return l.defaultAgent
		}
	}
	return core.NoMatch
}

func (l *LLM) buildPrompt(message string) string {
	var b strings.Builder
	b.WriteString("Select the best agent for the user's message. Available agents:\n")
	for _, d := range l.registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
	}
	fmt.Fprintf(&b, "Reply with exactly one agent name from the list, or %q if none fits.\n\nUser message: %s", core.NoMatch, message)
	return b.String()
}

// normalize strips whitespace and decoration an upstream model may wrap
// around the bare agent name.
func normalize(answer string) string {
	name := strings.TrimSpace(answer)
	name = strings.Trim(name, "\"'`")
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name
}
