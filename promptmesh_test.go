package promptmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/promptmesh/memoryservice"
	"github.com/hupe1980/promptmesh/pipeline"
	"github.com/hupe1980/promptmesh/provider"
	"github.com/hupe1980/promptmesh/publisher"
)

func TestNewWithDefaultsExecutes(t *testing.T) {
	p := provider.NewMockProvider()
	p.AddResponse("Say hello to Bob", "Hello Bob!")

	mesh := New(p)
	mesh.AddPattern("greet", "Say hello to {{input}}")

	result, err := mesh.Execute(context.Background(), pipeline.Request{
		SessionID: "s1",
		Pattern:   "greet",
		Input:     "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Bob!", result.Response)
}

func TestBuiltinExtensionsAreWired(t *testing.T) {
	memory := memoryservice.NewInMemoryService()
	_, err := memory.Add(context.Background(), "u1", "Go modules use semantic versioning", nil)
	require.NoError(t, err)

	p := provider.NewMockProvider()
	mesh := New(p, func(o *Options) {
		o.MemoryService = memory
	})
	mesh.AddPattern("recall", "Notes:\n{{memory:search:query=semantic,user=u1}}")

	result, err := mesh.Execute(context.Background(), pipeline.Request{
		SessionID: "s1",
		Pattern:   "recall",
	})
	require.NoError(t, err)
	assert.Contains(t, result.RenderedPrompt, "Go modules use semantic versioning")
}

func TestEventsFlowThroughFacade(t *testing.T) {
	pub := publisher.NewInMemoryPublisher()

	mesh := New(provider.NewMockProvider(), func(o *Options) {
		o.Publisher = pub
	})
	mesh.AddPattern("p", "fixed prompt")

	_, err := mesh.Execute(context.Background(), pipeline.Request{SessionID: "s1", Pattern: "p"})
	require.NoError(t, err)

	assert.Len(t, pub.Events(), 2)
}

func TestStrategyAndContextRegistration(t *testing.T) {
	mesh := New(provider.NewMockProvider())
	mesh.AddPattern("solve", "Solve {{input}}")
	mesh.AddStrategy("cot", "chain of thought", "Think step by step.")
	mesh.AddContext("math", "All answers are integers.")

	result, err := mesh.Execute(context.Background(), pipeline.Request{
		SessionID: "s1",
		Pattern:   "solve",
		Strategy:  "cot",
		Context:   "math",
		Input:     "2+2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Think step by step.\n\nAll answers are integers.\n\nSolve 2+2", result.RenderedPrompt)
}
