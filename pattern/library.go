// Package pattern provides libraries of reusable prompt fragments: patterns
// (the task-specific prompt body), strategies (optional reasoning preambles)
// and contexts (optional background blocks). The execution pipeline looks
// fragments up by name; unknown names are hard errors so that typos surface
// immediately instead of silently dropping a fragment.
package pattern

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is wrapped by all lookup failures.
var ErrNotFound = errors.New("not found")

// Pattern is the required core fragment of a rendered prompt.
type Pattern struct {
	Name string
	Body string
}

// Strategy is an optional fragment prepended to influence the reasoning
// approach. Description is informational only; Prompt is what gets rendered.
type Strategy struct {
	Name        string `yaml:"-"`
	Description string `yaml:"description"`
	Prompt      string `yaml:"prompt"`
}

// Context is an optional background fragment rendered between the strategy
// and the pattern body.
type Context struct {
	Name string
	Body string
}

// Library resolves prompt fragments by name.
type Library interface {
	// Pattern returns the named pattern or an error wrapping ErrNotFound.
	Pattern(name string) (Pattern, error)

	// Strategy returns the named strategy or an error wrapping ErrNotFound.
	Strategy(name string) (Strategy, error)

	// Context returns the named context or an error wrapping ErrNotFound.
	Context(name string) (Context, error)
}

// InMemoryLibrary is a Library backed by process-local maps. Safe for
// concurrent use; registration typically happens once at startup.
type InMemoryLibrary struct {
	mu         sync.RWMutex
	patterns   map[string]Pattern
	strategies map[string]Strategy
	contexts   map[string]Context
}

// NewInMemoryLibrary creates an empty in-memory library.
func NewInMemoryLibrary() *InMemoryLibrary {
	return &InMemoryLibrary{
		patterns:   make(map[string]Pattern),
		strategies: make(map[string]Strategy),
		contexts:   make(map[string]Context),
	}
}

// AddPattern registers a pattern body under name. Last write wins.
func (l *InMemoryLibrary) AddPattern(name, body string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.patterns[name] = Pattern{Name: name, Body: body}
}

// AddStrategy registers a strategy. Last write wins.
func (l *InMemoryLibrary) AddStrategy(name, description, prompt string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.strategies[name] = Strategy{Name: name, Description: description, Prompt: prompt}
}

// AddContext registers a context body under name. Last write wins.
func (l *InMemoryLibrary) AddContext(name, body string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contexts[name] = Context{Name: name, Body: body}
}

// Pattern implements Library.
func (l *InMemoryLibrary) Pattern(name string) (Pattern, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.patterns[name]
	if !ok {
		return Pattern{}, fmt.Errorf("pattern %q: %w", name, ErrNotFound)
	}
	return p, nil
}

// Strategy implements Library.
func (l *InMemoryLibrary) Strategy(name string) (Strategy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("strategy %q: %w", name, ErrNotFound)
	}
	return s, nil
}

// Context implements Library.
func (l *InMemoryLibrary) Context(name string) (Context, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.contexts[name]
	if !ok {
		return Context{}, fmt.Errorf("context %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Interface compliance (compile-time assertion)
var _ Library = (*InMemoryLibrary)(nil)
