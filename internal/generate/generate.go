// Package generate produces report text from a prompt with a chat
// completion model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Sentinel errors for text generation.
var (
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	ErrNoChoices   = errors.New("model returned no choices")
	ErrNoAPIKey    = errors.New("no API key configured")
	ErrGenerate    = errors.New("generating report text")
)

// MaxPromptLength bounds prompts accepted from clients.
const MaxPromptLength = 16000

// Generator turns a prompt into report text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config configures an OpenAI-compatible generator.
type Config struct {
	APIKey       string
	BaseURL      string // Empty = api.openai.com
	Model        string
	SystemPrompt string
	Timeout      time.Duration // 0 = none
	MaxRetries   int
}

// OpenAI generates text through the chat completions API.
type OpenAI struct {
	client       openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
}

var _ Generator = (*OpenAI)(nil)

// NewOpenAI returns a generator for cfg. An API key is required unless a
// custom base URL points at a server that does not need one.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ErrNoAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
	}, nil
}

// Generate sends prompt with the configured system prompt and returns the
// first choice's content.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if len(prompt) > MaxPromptLength {
		return "", fmt.Errorf("%w: prompt is %d bytes, max %d", ErrGenerate, len(prompt), MaxPromptLength)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(g.systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Static returns fixed text for every prompt. Used when no model is
// configured and in tests.
type Static struct {
	Text string
	Err  error
}

var _ Generator = Static{}

// Generate returns s.Text or s.Err.
func (s Static) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}
