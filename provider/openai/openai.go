// Package openai provides a core.Provider backed by the OpenAI Chat
// Completions API. The rendered pattern prompt is sent as a single user
// message and the first choice's content is returned.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/promptmesh/core"
)

// Options configure the OpenAI provider.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	// Model is used when the pipeline request leaves the model blank.
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// SystemPrompt, when set, is prepended as a system message.
	SystemPrompt string
}

// Provider wraps the OpenAI Chat Completions API behind core.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client (API key from
// the environment).
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Complete implements core.Provider.
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = p.opts.Model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if p.opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(p.opts.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api error: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Interface compliance (compile-time assertion)
var _ core.Provider = (*Provider)(nil)
