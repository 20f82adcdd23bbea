package agent

import "fmt"

// BaseAgent bundles identity helpers shared by concrete agents. Embed it and
// supply a Run method to satisfy the core.Agent interface.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }
