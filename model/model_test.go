package model

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_NonStreaming(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("hello", "hi there")

	respCh, errCh := m.Generate(context.Background(), Request{Prompt: "hello"})

	var final Response
	for r := range respCh {
		final = r
	}
	require.NoError(t, <-errCh)

	assert.False(t, final.Partial)
	assert.Equal(t, "hi there", final.Text)
	assert.Equal(t, "stop", final.FinishReason)
}

func TestMockModel_StreamingEmitsPartialsThenFinal(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("hello", "hi")

	respCh, errCh := m.Generate(context.Background(), Request{Prompt: "hello", Stream: true})

	var partials []string
	var final Response
	for r := range respCh {
		if r.Partial {
			partials = append(partials, r.Text)
			continue
		}
		final = r
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"h", "i"}, partials)
	assert.Equal(t, "hi", strings.Join(partials, ""))
	assert.Equal(t, "hi", final.Text)
}

func TestMockModel_FallbackResponse(t *testing.T) {
	m := NewMockModel("test-model")

	respCh, errCh := m.Generate(context.Background(), Request{Prompt: "unknown"})

	var final Response
	for r := range respCh {
		final = r
	}
	require.NoError(t, <-errCh)
	assert.Contains(t, final.Text, "unknown")
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel("test-model")

	info := m.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
