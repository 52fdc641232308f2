package agent

import (
	"fmt"

	"github.com/hupe1980/agentrelay/core"
)

// BaseAgent bundles the identity shared by all agent implementations. Embed
// it in concrete agents and supply Invoke/InvokeStream to satisfy the
// core.Agent interface. The fields are set at construction time and never
// mutated afterwards, so BaseAgent is safe for concurrent use.
type BaseAgent struct {
	name        string
	description string
	agentType   string
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name, agentType string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
		agentType:   agentType,
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// SetDescription updates the agent's description. Call before registration;
// descriptors are copied into the registry at registration time.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Descriptor returns the static identity record for this agent.
func (b *BaseAgent) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:        b.name,
		Description: b.description,
		Type:        b.agentType,
	}
}

// errorMarker renders a mid-stream failure as the final fragment of a
// stream, per the streaming contract.
func errorMarker(name string, err error) string {
	return fmt.Sprintf("[%s error: %v]", name, err)
}
