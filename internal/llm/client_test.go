package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
)

// fakeModel scripts GenerateContent responses.
type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{}, nil)
	require.Error(t, err)
}

func TestComplete(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "  yes it matches  "}},
	}}
	client := &Client{model: model, logger: zap.NewNop()}

	got, err := client.Complete(context.Background(), "system prompt", "user prompt", "assistant context")
	require.NoError(t, err)
	assert.Equal(t, "yes it matches", got)

	require.Len(t, model.messages, 3)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, model.messages[2].Role)
}

func TestComplete_ProviderError(t *testing.T) {
	client := &Client{model: &fakeModel{err: errors.New("upstream 500")}, logger: zap.NewNop()}

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)

	var generationErr *GenerationError
	assert.ErrorAs(t, err, &generationErr)
}

func TestComplete_EmptyCompletion(t *testing.T) {
	for _, resp := range []*llms.ContentResponse{
		{Choices: nil},
		{Choices: []*llms.ContentChoice{{Content: "   "}}},
	} {
		client := &Client{model: &fakeModel{resp: resp}, logger: zap.NewNop()}

		_, err := client.Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	}
}
