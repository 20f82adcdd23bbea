package core

// Agent defines the contract for a named unit of AI-backed work.
//
// An agent receives its input through a RunContext, performs its work
// incrementally and emits lifecycle events via the context's Emit channel.
// Implementations must:
//   - Respect RunContext cancellation between yields (cooperative
//     cancellation; there is no preemptive interruption)
//   - Return nil after a normal completion, context cancellation error after
//     an observed cancellation, or any other error on failure (the runner
//     converts the return value into the terminal lifecycle event when the
//     agent did not emit one itself)
//   - Never panic across Run; recover internally where third-party code may
type Agent interface {
	Name() string
	Description() string
	Run(rc *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts and logs.
type AgentInfo struct{ Name, Description string }

// Input carries the caller-supplied payload for one run. Kind is the logical
// job type assigned by the submission layer (chat, rag-query, index, ...);
// Prompt is the primary text for generation-style agents; Payload holds any
// additional job parameters. The core treats all three opaquely.
type Input struct {
	Kind    string         `json:"kind,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}
