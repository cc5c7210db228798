// Package anthropic provides a core.Provider backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/promptmesh/core"
)

// Options configure the Anthropic provider (temperature, model id, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	// Model is used when the pipeline request leaves the model blank.
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// SystemPrompt, when set, is passed as the system message.
	SystemPrompt string
}

// Provider wraps the Anthropic Messages API behind core.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Complete implements core.Provider.
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	modelID := p.opts.Model
	if model != "" {
		modelID = anthropic.Model(model)
	}

	params := anthropic.MessageNewParams{
		Model:       modelID,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
	}
	if p.opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.opts.SystemPrompt}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Interface compliance (compile-time assertion)
var _ core.Provider = (*Provider)(nil)
