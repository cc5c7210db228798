// Package pipeline drives one prompt exchange end to end: it assembles the
// base template from conversation history, strategy, context and pattern
// body, renders it through the template engine, calls the LLM provider and
// commits the resulting turn pair atomically before emitting domain events.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/promptmesh/core"
	"github.com/hupe1980/promptmesh/logging"
	"github.com/hupe1980/promptmesh/pattern"
	"github.com/hupe1980/promptmesh/template"
)

// inputVariable is the conventional name for the caller's primary input.
const inputVariable = "input"

// Request describes one pipeline run.
type Request struct {
	// SessionID keys the conversation; a new conversation is created for an
	// unknown id.
	SessionID string

	// Pattern names the required prompt body in the library.
	Pattern string

	// Strategy and Context name optional fragments; empty means none, an
	// unknown name is a hard error.
	Strategy string
	Context  string

	// Model is passed through to the provider; empty selects its default.
	Model string

	// Input is bound to the {{input}} variable when non-empty.
	Input string

	// Variables seed the render's variable table alongside Input.
	Variables map[string]any

	// OutputModel, when non-nil, receives the provider's text parsed as JSON
	// after the turns are committed.
	OutputModel any
}

// Result is the outcome of a successful run.
type Result struct {
	SessionID      string
	RenderedPrompt string
	Response       string
	TurnIDs        []string
	CreatedSession bool
}

// Options configure an Executor.
type Options struct {
	// Dependencies are offered to macro extensions during rendering.
	Dependencies template.Dependencies

	// Publisher receives domain events after commit; nil disables publishing.
	Publisher core.EventPublisher

	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// MaxPasses caps the macro resolution loop.
	MaxPasses int

	// Metrics enables prometheus instrumentation; nil disables it.
	Metrics *Metrics
}

// Executor runs the pattern execution pipeline. It is immutable after
// construction and safe for concurrent use; runs against the same session id
// are not ordered (last write wins at the store).
type Executor struct {
	library   pattern.Library
	resolver  *template.Resolver
	store     core.ConversationStore
	provider  core.Provider
	publisher core.EventPublisher
	logger    logging.Logger
	metrics   *Metrics
}

// NewExecutor wires a pipeline over its collaborators. The registry is
// expected to be fully populated; it is treated as read-only from here on.
func NewExecutor(
	library pattern.Library,
	registry *template.Registry,
	store core.ConversationStore,
	provider core.Provider,
	optFns ...func(o *Options),
) *Executor {
	opts := Options{
		Dependencies: template.Dependencies{},
		Logger:       logging.NoOpLogger{},
		MaxPasses:    template.DefaultMaxPasses,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	resolver := template.NewResolver(registry, func(o *template.ResolverOptions) {
		o.Dependencies = opts.Dependencies
		o.Logger = opts.Logger
		o.MaxPasses = opts.MaxPasses
	})

	return &Executor{
		library:   library,
		resolver:  resolver,
		store:     store,
		provider:  provider,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Execute runs one exchange. Render, provider and persistence failures abort
// the run with the transaction rolled back; a structured-output parse failure
// is reported after the turns are already committed.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.Pattern == "" {
		return nil, fmt.Errorf("pipeline: pattern name is required")
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("pipeline: session id is required")
	}

	result, err := e.run(ctx, req)
	e.metrics.observeRun(req.Pattern, err)
	return result, err
}

func (e *Executor) run(ctx context.Context, req Request) (*Result, error) {
	uow := NewUnitOfWork(e.store)
	defer uow.Rollback()

	conv, err := uow.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	base, err := e.assemble(conv, req)
	if err != nil {
		return nil, err
	}

	rendered, err := e.render(ctx, req, base)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rendered) == "" {
		return nil, &EmptyRenderedPromptError{Pattern: req.Pattern}
	}

	response, err := e.complete(ctx, req, rendered)
	if err != nil {
		return nil, err
	}

	userTurnID := conv.AppendTurn(core.RoleUser, e.userTurnContent(req, rendered))
	assistantTurnID := conv.AppendTurn(core.RoleAssistant, response)

	createdSession := uow.IsNew()
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	e.metrics.addTurns(2)

	turnIDs := []string{userTurnID, assistantTurnID}
	e.publish(ctx, conv.ID, createdSession, turnIDs)

	result := &Result{
		SessionID:      req.SessionID,
		RenderedPrompt: rendered,
		Response:       response,
		TurnIDs:        turnIDs,
		CreatedSession: createdSession,
	}

	// Parsing happens after persistence so a malformed structured response
	// never loses the exchange.
	if req.OutputModel != nil {
		if err := parseStructuredOutput(response, req.OutputModel); err != nil {
			return result, err
		}
	}

	return result, nil
}

// assemble concatenates history, strategy, context and pattern body into the
// base template, in that order, separated by blank lines.
func (e *Executor) assemble(conv *core.Conversation, req Request) (string, error) {
	var blocks []string

	if history := formatHistory(conv); history != "" {
		blocks = append(blocks, history)
	}

	if req.Strategy != "" {
		strategy, err := e.library.Strategy(req.Strategy)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, strategy.Prompt)
	}

	if req.Context != "" {
		contextDoc, err := e.library.Context(req.Context)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, contextDoc.Body)
	}

	p, err := e.library.Pattern(req.Pattern)
	if err != nil {
		return "", err
	}
	blocks = append(blocks, p.Body)

	return strings.Join(blocks, "\n\n"), nil
}

func (e *Executor) render(ctx context.Context, req Request, base string) (string, error) {
	vars := make(map[string]any, len(req.Variables)+1)
	for k, v := range req.Variables {
		vars[k] = v
	}
	if req.Input != "" {
		vars[inputVariable] = req.Input
	}

	start := time.Now()
	rendered, err := e.resolver.Render(ctx, base, vars)
	e.metrics.observeRender(time.Since(start))
	if rl, ok := e.logger.(renderLogger); ok {
		rl.LogRender(req.Pattern, 1, time.Since(start), err == nil, err)
	}
	if err != nil {
		return "", err
	}
	return rendered, nil
}

func (e *Executor) complete(ctx context.Context, req Request, rendered string) (string, error) {
	start := time.Now()
	response, err := e.provider.Complete(ctx, rendered, req.Model)
	e.metrics.observeLLM(req.Model, time.Since(start))
	if ll, ok := e.logger.(llmLogger); ok {
		ll.LogLLMCall(req.Model, len(rendered), time.Since(start), err == nil, err)
	}
	if err != nil {
		return "", fmt.Errorf("pipeline: provider call: %w", err)
	}
	return response, nil
}

// userTurnContent picks what to record as the user turn: the primary input
// when given, the rendered prompt when there were no variables at all, and a
// short derived label otherwise (the rendered prompt would duplicate the
// injected history).
func (e *Executor) userTurnContent(req Request, rendered string) string {
	if req.Input != "" {
		return req.Input
	}
	if len(req.Variables) == 0 {
		return rendered
	}
	return fmt.Sprintf("%s (%d variables)", req.Pattern, len(req.Variables))
}

// publish emits domain events fire-and-forget; a failing publisher never
// fails an already-committed run.
func (e *Executor) publish(ctx context.Context, conversationID string, created bool, turnIDs []string) {
	if e.publisher == nil {
		return
	}
	if created {
		if err := e.publisher.Publish(ctx, core.NewConversationCreatedEvent(conversationID)); err != nil {
			e.logger.Warn("event publish failed", "event", core.EventConversationCreated, "error", err)
		}
	}
	event := core.NewTurnsAppendedEvent(conversationID, turnIDs, len(turnIDs))
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("event publish failed", "event", core.EventTurnsAppended, "error", err)
	}
}

// formatHistory renders prior turns as a prefix block, one "role: content"
// line per turn. Empty conversations produce no block.
func formatHistory(conv *core.Conversation) string {
	turns := conv.GetTurns()
	if len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("# Conversation so far\n")
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseStructuredOutput validates the provider text as JSON and unmarshals
// it into the caller's model.
func parseStructuredOutput(response string, model any) error {
	text := strings.TrimSpace(response)
	if !gjson.Valid(text) {
		return &StructuredOutputError{Err: fmt.Errorf("response is not valid JSON")}
	}
	if err := json.Unmarshal([]byte(text), model); err != nil {
		return &StructuredOutputError{Err: err}
	}
	return nil
}

// Optional logger capabilities; satisfied by logging.PromptMeshLogger.
type renderLogger interface {
	LogRender(pattern string, passes int, dur time.Duration, success bool, err error)
}

type llmLogger interface {
	LogLLMCall(model string, promptChars int, dur time.Duration, success bool, err error)
}
