package core

import "context"

// Provider is the minimal interface required to obtain a completion from a
// language model. The prompt is opaque, fully rendered text; model may be
// empty to use the adapter's default. Implementations own their retry and
// timeout policy — the pipeline never retries a completion.
type Provider interface {
	Complete(ctx context.Context, prompt string, model string) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be used
// as Providers.
type ProviderFunc func(ctx context.Context, prompt string, model string) (string, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, prompt string, model string) (string, error) {
	return f(ctx, prompt, model)
}
