// Package ai adapts hosted language models to the text transformer port.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const systemPrompt = "You are an expert resume writer. Rewrite the resume you are given following the " +
	"user's instruction. Keep every fact truthful, keep the candidate's contact details, and answer " +
	"with the complete resume in plain text using Markdown headings (#, ##) and '-' bullets only."

// ChatCompleter is the subset of the OpenAI client used here
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config for the OpenAI transformer
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAITransformer rewrites documents with a chat completion model. Calls
// go through a circuit breaker so a failing provider is not hammered.
type OpenAITransformer struct {
	client  ChatCompleter
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOpenAIClient builds the SDK client from cfg
func NewOpenAIClient(cfg Config) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg), nil
}

// NewOpenAITransformer creates a transformer using model
func NewOpenAITransformer(client ChatCompleter, model string, timeout time.Duration, logger *zap.Logger) *OpenAITransformer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITransformer{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openai",
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			// Cancellation by the caller is not a provider failure
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

var _ ports.TextTransformer = (*OpenAITransformer)(nil)

// Transform asks the model to rewrite document according to instruction
func (t *OpenAITransformer) Transform(ctx context.Context, document, instruction string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: instruction + "\n\nResume:\n" + document},
		},
		Temperature: 0.4,
	}

	start := time.Now()
	result, err := t.breaker.Execute(func() (interface{}, error) {
		return t.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		t.logger.Error("OpenAI API call failed",
			zap.String("model", t.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", pkgerrors.NewExternalError("ai transform", err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", pkgerrors.NewExternalError("ai transform", fmt.Errorf("model returned no content"))
	}

	t.logger.Debug("Received response from OpenAI",
		zap.String("model", t.model),
		zap.String("finishReason", string(resp.Choices[0].FinishReason)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// EchoTransformer returns the document with the instruction prepended. It
// stands in for the model in local development without an API key.
type EchoTransformer struct{}

// Transform implements ports.TextTransformer
func (EchoTransformer) Transform(ctx context.Context, document, instruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "# Tailored resume\n\n" + instruction + "\n\n" + document, nil
}
