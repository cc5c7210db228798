// Package promptmesh provides a high-level façade over the template engine
// and the pattern execution pipeline. Most applications interact with this
// package by:
//  1. Creating a PromptMesh via New() (optionally overriding default in‑memory services)
//  2. Registering patterns, strategies and contexts (or supplying a Library)
//  3. Executing patterns against an LLM provider with Execute()
//
// The façade delegates to pipeline.Executor while keeping setup ergonomics
// concise. All defaults are safe for local development and testing;
// production deployments typically supply a durable conversation store, a
// real event publisher and a structured logger.
package promptmesh

import (
	"context"

	"github.com/hupe1980/promptmesh/conversation"
	"github.com/hupe1980/promptmesh/core"
	"github.com/hupe1980/promptmesh/extension"
	"github.com/hupe1980/promptmesh/logging"
	"github.com/hupe1980/promptmesh/memoryservice"
	"github.com/hupe1980/promptmesh/pattern"
	"github.com/hupe1980/promptmesh/pipeline"
	"github.com/hupe1980/promptmesh/template"
)

// Options configures the PromptMesh instance.
type Options struct {
	// Library resolves patterns, strategies and contexts. Defaults to an
	// empty in-memory library (use AddPattern and friends to fill it).
	Library pattern.Library

	// ConversationStore persists sessions. Defaults to in-memory.
	ConversationStore core.ConversationStore

	// MemoryService backs the memory:* extensions. Defaults to in-memory.
	MemoryService core.MemoryService

	// AgentClient backs the agent:invoke extension. Nil leaves agent macros
	// failing with a missing-dependency error, which is fine for setups that
	// never use them.
	AgentClient core.AgentClient

	// Publisher receives domain events after each committed run.
	Publisher core.EventPublisher

	// Registry carries the macro extensions. Defaults to a fresh registry
	// with the built-ins registered.
	Registry *template.Registry

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics enables prometheus instrumentation of the pipeline.
	Metrics *pipeline.Metrics

	// MaxPasses caps macro resolution per render.
	MaxPasses int
}

// PromptMesh is the high-level façade aggregating the pipeline and services.
type PromptMesh struct {
	opts     Options
	library  pattern.Library
	executor *pipeline.Executor
}

// New creates a PromptMesh over the given LLM provider with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(provider core.Provider, optFns ...func(o *Options)) *PromptMesh {
	opts := Options{
		Library:           pattern.NewInMemoryLibrary(),
		ConversationStore: conversation.NewInMemoryStore(),
		MemoryService:     memoryservice.NewInMemoryService(),
		Logger:            logging.NoOpLogger{},
		MaxPasses:         template.DefaultMaxPasses,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = template.NewRegistry()
		extension.RegisterBuiltins(opts.Registry)
	}

	deps := template.Dependencies{
		template.DepMemory: opts.MemoryService,
	}
	if opts.AgentClient != nil {
		deps[template.DepAgent] = opts.AgentClient
	}

	return &PromptMesh{
		opts:    opts,
		library: opts.Library,
		executor: pipeline.NewExecutor(opts.Library, opts.Registry, opts.ConversationStore, provider, func(o *pipeline.Options) {
			o.Dependencies = deps
			o.Publisher = opts.Publisher
			o.Logger = opts.Logger
			o.MaxPasses = opts.MaxPasses
			o.Metrics = opts.Metrics
		}),
	}
}

// Execute runs one pattern exchange through the pipeline.
func (m *PromptMesh) Execute(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	return m.executor.Execute(ctx, req)
}

// Library returns the configured fragment library.
func (m *PromptMesh) Library() pattern.Library { return m.library }

// libraryWriter is satisfied by pattern.InMemoryLibrary.
type libraryWriter interface {
	AddPattern(name, body string)
	AddStrategy(name, description, prompt string)
	AddContext(name, body string)
}

// AddPattern registers a pattern body when the configured library is
// writable (the in-memory default); otherwise it logs and does nothing.
func (m *PromptMesh) AddPattern(name, body string) {
	if w, ok := m.library.(libraryWriter); ok {
		w.AddPattern(name, body)
		return
	}
	m.opts.Logger.Warn("library is read-only, pattern not registered", "pattern", name)
}

// AddStrategy registers a strategy when the library is writable.
func (m *PromptMesh) AddStrategy(name, description, prompt string) {
	if w, ok := m.library.(libraryWriter); ok {
		w.AddStrategy(name, description, prompt)
		return
	}
	m.opts.Logger.Warn("library is read-only, strategy not registered", "strategy", name)
}

// AddContext registers a context when the library is writable.
func (m *PromptMesh) AddContext(name, body string) {
	if w, ok := m.library.(libraryWriter); ok {
		w.AddContext(name, body)
		return
	}
	m.opts.Logger.Warn("library is read-only, context not registered", "context", name)
}
