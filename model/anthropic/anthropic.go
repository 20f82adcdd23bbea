// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/inkfold/inkfold/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Generate implements unified streaming / non-streaming generation against
// the Anthropic Messages API.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}

		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// handleStreaming drains the SDK event stream, forwarding each text delta as
// a partial response and accumulating the full message for the final one.
func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic accumulate error: %w", err)
			return
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				out <- model.Response{Partial: true, Text: delta.Text}
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}

	out <- model.Response{
		Text:         messageText(message.Content),
		FinishReason: finishReason(message.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("anthropic api error: %w", err)
		return
	}

	out <- model.Response{
		Text:         messageText(resp.Content),
		FinishReason: finishReason(resp.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

// messageText concatenates text blocks of a message.
func messageText(blocks []anthropic.ContentBlockUnion) string {
	var text string
	for _, block := range blocks {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text
}

func finishReason(stop anthropic.StopReason) string {
	if stop == "" {
		return "stop"
	}
	return string(stop)
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     string(m.opts.Model),
		Provider: "anthropic",
	}
}
