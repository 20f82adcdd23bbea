package model

import (
	"context"
	"fmt"
)

// Request captures the normalized generation input produced by agents.
type Request struct {
	// System is an optional system instruction.
	System string `json:"system,omitempty"`
	// Prompt is the user-visible input text.
	Prompt string `json:"prompt"`
	// Stream requests incremental partial responses.
	Stream bool `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. A partial
// response carries one incremental text delta; the final response carries the
// full accumulated text.
type Response struct {
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		full := m.responses[req.Prompt]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", req.Prompt)
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}

		respCh <- Response{
			Text:         full,
			FinishReason: "stop",
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
