// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming). It adapts Inkfold's normalized
// Request/Response structures into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/inkfold/inkfold/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// buildParams assembles the OpenAI request parameters.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
}

// handleStreaming processes streaming responses and forwards partial / final events.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var textBuilder strings.Builder
	finish := "stop"
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				out <- model.Response{Partial: true, Text: ch.Delta.Content}
			}
			if ch.FinishReason != "" {
				finish = ch.FinishReason
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}

	out <- model.Response{
		Text:         textBuilder.String(),
		FinishReason: finish,
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}

	ch0 := resp.Choices[0]
	out <- model.Response{
		Text:         ch0.Message.Content,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "openai",
	}
}
