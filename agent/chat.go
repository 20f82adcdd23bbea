package agent

import (
	"fmt"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/model"
)

// ChatAgent drives a model.Model and relays its output as lifecycle events:
// each partial becomes a stream event, the final response becomes the
// completed terminal carrying the full text. Cancellation is observed
// between model chunks.
type ChatAgent struct {
	BaseAgent
	model  model.Model
	system string
}

// NewChatAgent constructs a ChatAgent backed by m.
func NewChatAgent(name string, m model.Model, optFns ...func(a *ChatAgent)) *ChatAgent {
	a := &ChatAgent{
		BaseAgent: NewBaseAgent(name),
		model:     m,
	}
	a.SetDescription(fmt.Sprintf("Chat agent %s backed by %s", name, m.Info().Name))

	for _, fn := range optFns {
		fn(a)
	}

	return a
}

// WithSystem sets the system instruction sent with every request.
func WithSystem(system string) func(a *ChatAgent) {
	return func(a *ChatAgent) { a.system = system }
}

// Run implements core.Agent. The model's response channel is drained to
// completion; a model error aborts the run and is returned to the
// coordinator for translation into an error event.
func (a *ChatAgent) Run(rc *core.RunContext) error {
	respCh, errCh := a.model.Generate(rc.Context, model.Request{
		System: a.system,
		Prompt: rc.Input.Prompt,
		Stream: true,
	})

	for resp := range respCh {
		if resp.Partial {
			if err := rc.EmitToken(resp.Text); err != nil {
				return err
			}
			continue
		}

		if err := rc.EmitCompleted(resp.Text, rc.Elapsed()); err != nil {
			return err
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("model %s: %w", a.model.Info().Name, err)
	}

	return nil
}
