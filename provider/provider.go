// Package provider hosts LLM provider implementations of core.Provider.
// Vendor adapters live in subpackages (openai, anthropic) so their SDKs are
// only linked when used; MockProvider lives here for tests and examples.
package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a lightweight in‑memory Provider useful for tests & examples.
type MockProvider struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []Call
	err       error
}

// Call records a single Complete invocation.
type Call struct {
	Prompt string
	Model  string
}

// NewMockProvider constructs an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every subsequent Complete call fail with err.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete implements core.Provider. Unregistered prompts get a generic
// echo response so tests only register what they assert on.
func (m *MockProvider) Complete(ctx context.Context, prompt, model string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Prompt: prompt, Model: model})
	if m.err != nil {
		return "", m.err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Calls returns a copy of all recorded invocations.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
