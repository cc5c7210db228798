package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/promptmesh/conversation"
	"github.com/hupe1980/promptmesh/core"
	"github.com/hupe1980/promptmesh/internal/testutil"
	"github.com/hupe1980/promptmesh/pattern"
	"github.com/hupe1980/promptmesh/provider"
	"github.com/hupe1980/promptmesh/publisher"
	"github.com/hupe1980/promptmesh/template"
)

type pipelineEnv struct {
	library   *pattern.InMemoryLibrary
	registry  *template.Registry
	store     *conversation.InMemoryStore
	provider  *provider.MockProvider
	publisher *publisher.InMemoryPublisher
	executor  *Executor
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	env := &pipelineEnv{
		library:   pattern.NewInMemoryLibrary(),
		registry:  template.NewRegistry(),
		store:     conversation.NewInMemoryStore(),
		provider:  provider.NewMockProvider(),
		publisher: publisher.NewInMemoryPublisher(),
	}
	env.registry.Register(template.Extension{
		Namespace: "test",
		Operation: "answer",
		Handler: func(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
			return "42", nil
		},
	})
	env.executor = NewExecutor(env.library, env.registry, env.store, env.provider, func(o *Options) {
		o.Publisher = env.publisher
	})
	return env
}

func TestExecuteHappyPath(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("greet", "Say hello to {{input}}")
	env.provider.AddResponse("Say hello to Bob", "Hello Bob!")

	result, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "greet",
		Input:     "Bob",
	})
	require.NoError(t, err)

	assert.Equal(t, "Say hello to Bob", result.RenderedPrompt)
	assert.Equal(t, "Hello Bob!", result.Response)
	assert.True(t, result.CreatedSession)
	require.Len(t, result.TurnIDs, 2)

	conv, err := env.store.Get(context.Background(), "s1")
	require.NoError(t, err)
	turns := conv.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "Bob", turns[0].Content)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Hello Bob!", turns[1].Content)

	events := env.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventConversationCreated, events[0].Type)
	assert.Equal(t, core.EventTurnsAppended, events[1].Type)
	assert.Equal(t, "s1", events[1].ConversationID)
}

func TestExecuteAssemblesStrategyContextPattern(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddStrategy("cot", "", "Think step by step.")
	env.library.AddContext("project", "Background info.")
	env.library.AddPattern("solve", "Solve: {{input}}")

	result, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "solve",
		Strategy:  "cot",
		Context:   "project",
		Input:     "2+2",
	})
	require.NoError(t, err)

	assert.Equal(t, "Think step by step.\n\nBackground info.\n\nSolve: 2+2", result.RenderedPrompt)
}

func TestExecuteConversationContinuity(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("chat", "Reply to {{input}}")

	prior := testutil.NewConversationBuilder("s1").User("hi").Assistant("hello").Build()
	require.NoError(t, env.store.Create(context.Background(), prior))

	result, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "chat",
		Input:     "how are you?",
	})
	require.NoError(t, err)
	assert.False(t, result.CreatedSession)

	// The history block is prepended to the rendering.
	assert.Contains(t, result.RenderedPrompt, "user: hi")
	assert.Contains(t, result.RenderedPrompt, "assistant: hello")
	assert.Contains(t, result.RenderedPrompt, "Reply to how are you?")

	conv, err := env.store.Get(context.Background(), "s1")
	require.NoError(t, err)
	turns := conv.GetTurns()
	require.Len(t, turns, 4)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, "hello", turns[1].Content)
	assert.Equal(t, "how are you?", turns[2].Content)

	events := env.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.EventTurnsAppended, events[0].Type)
}

func TestExecuteEmptyRenderedPrompt(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("blank", "   {{empty}}  ")

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "blank",
		Variables: map[string]any{"empty": ""},
	})

	var emptyErr *EmptyRenderedPromptError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "blank", emptyErr.Pattern)

	// Neither the provider nor the store was touched.
	assert.Empty(t, env.provider.Calls())
	_, err = env.store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, core.ErrConversationNotFound)
	assert.Empty(t, env.publisher.Events())
}

func TestExecuteMacroOutputVariableChaining(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("compute", "A{{test:answer:out=v}}B{{v}}")
	env.provider.AddResponse("AB42", "done")

	result, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "compute",
	})
	require.NoError(t, err)
	assert.Equal(t, "AB42", result.RenderedPrompt)
	assert.Equal(t, "done", result.Response)
}

func TestExecuteUnknownStrategy(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("p", "body")

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "p",
		Strategy:  "missing",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pattern.ErrNotFound)
	assert.Empty(t, env.provider.Calls())
}

func TestExecuteUnknownPattern(t *testing.T) {
	env := newPipelineEnv(t)

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "missing",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pattern.ErrNotFound)
}

func TestExecuteRequiresPatternAndSession(t *testing.T) {
	env := newPipelineEnv(t)

	_, err := env.executor.Execute(context.Background(), Request{SessionID: "s1"})
	require.Error(t, err)

	_, err = env.executor.Execute(context.Background(), Request{Pattern: "p"})
	require.Error(t, err)
}

func TestExecuteProviderFailureRollsBack(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("p", "prompt body")
	env.provider.SetError(errors.New("rate limited"))

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "p",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	_, err = env.store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, core.ErrConversationNotFound)
	assert.Empty(t, env.publisher.Events())
}

func TestExecuteMissingVariableAborts(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("p", "Hello {{whoops}}")

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "p",
	})

	var missing *template.MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "whoops", missing.Name)
	assert.Empty(t, env.provider.Calls())
}

func TestExecuteStructuredOutput(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("score", "Rate: {{input}}")
	env.provider.AddResponse("Rate: essay", `{"score": 5, "verdict": "good"}`)

	var out struct {
		Score   int    `json:"score"`
		Verdict string `json:"verdict"`
	}
	result, err := env.executor.Execute(context.Background(), Request{
		SessionID:   "s1",
		Pattern:     "score",
		Input:       "essay",
		OutputModel: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Score)
	assert.Equal(t, "good", out.Verdict)
	assert.NotNil(t, result)
}

func TestExecuteStructuredOutputFailureKeepsTurns(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("score", "Rate: {{input}}")
	env.provider.AddResponse("Rate: essay", "sorry, plain text")

	var out struct {
		Score int `json:"score"`
	}
	result, err := env.executor.Execute(context.Background(), Request{
		SessionID:   "s1",
		Pattern:     "score",
		Input:       "essay",
		OutputModel: &out,
	})

	var structErr *StructuredOutputError
	require.ErrorAs(t, err, &structErr)
	require.NotNil(t, result, "exchange is still returned")
	assert.Equal(t, "sorry, plain text", result.Response)

	// Turns were committed before parsing was attempted.
	conv, getErr := env.store.Get(context.Background(), "s1")
	require.NoError(t, getErr)
	assert.Equal(t, 2, conv.Len())
}

func TestExecuteUserTurnLabelForVariableOnlyRuns(t *testing.T) {
	env := newPipelineEnv(t)
	env.library.AddPattern("report", "Summarize {{a}} and {{b}}")

	_, err := env.executor.Execute(context.Background(), Request{
		SessionID: "s1",
		Pattern:   "report",
		Variables: map[string]any{"a": "x", "b": "y"},
	})
	require.NoError(t, err)

	conv, err := env.store.Get(context.Background(), "s1")
	require.NoError(t, err)
	turns := conv.GetTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, "report (2 variables)", turns[0].Content)
}
