// Package llm wraps the generative provider behind a small completion API.
//
// The provider is an OpenAI-compatible chat-completion endpoint accessed
// through langchaingo, so self-hosted gateways work by pointing the base
// URL at them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
)

// GenerationError indicates a failed or empty completion. Callers must not
// treat it as a benign "no result": the cycle is retried instead.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmptyCompletion indicates the provider returned no usable text.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// Completer is the narrow completion surface the workflow components use.
type Completer interface {
	// Complete sends a system-primed chat completion. Extra messages
	// alternate human/assistant after the first human message, letting the
	// classifier attach candidate content as assistant context.
	Complete(ctx context.Context, system, user string, assistant ...string) (string, error)
}

// Client is the langchaingo-backed Completer.
type Client struct {
	model   llms.Model
	timeout config.Duration
	logger  *zap.Logger
}

// NewClient creates a completion client from LLM configuration.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, errors.New("LLM API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Client{
		model:   model,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, system, user string, assistant ...string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout.Duration())
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}
	for _, a := range assistant {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeAI, a))
	}

	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}

	c.logger.Debug("completion received", zap.Int("length", len(content)))
	return content, nil
}
