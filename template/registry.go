package template

import (
	"context"
	"sync"
)

// Well-known dependency names used by the built-in extensions. Custom
// extensions may declare their own names; the engine only checks presence.
const (
	DepMemory = "memory"
	DepAgent  = "agent"
)

// Dependencies is the set of named collaborators made available to extension
// handlers for one render (memory service, remote agent client, ...). The
// registry validates an extension's declared requirements against this set
// before invocation, so handlers can assert types without nil checks.
type Dependencies map[string]any

// Clone returns a shallow copy so per-render additions never leak into the
// engine-wide dependency set.
func (d Dependencies) Clone() Dependencies {
	out := make(Dependencies, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// HandlerFunc executes one macro invocation. It receives the substituted,
// decoded arguments and the resolved dependency set, and returns the text to
// splice into the template (or to store under the invocation's output
// variable). Handlers may perform I/O and must honor ctx cancellation.
type HandlerFunc func(ctx context.Context, args Arguments, deps Dependencies) (string, error)

// Extension binds a (namespace, operation) pair to a handler plus the named
// dependencies the handler needs. Declared once at startup, not mutated
// per-call.
type Extension struct {
	Namespace string
	Operation string
	// Requires lists dependency names that must be present in the render's
	// dependency set; a missing one fails fast with MissingDependencyError
	// before the handler runs.
	Requires []string
	Handler  HandlerFunc
}

// Key returns the registry key namespace:operation.
func (e Extension) Key() string { return e.Namespace + ":" + e.Operation }

// Registry maps (namespace, operation) pairs to extension handlers. It is
// populated once at process start and thereafter read-only; the mutex exists
// so late registration during tests remains safe.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]Extension
}

// NewRegistry constructs an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]Extension)}
}

// Register stores an extension. Re-registering the same namespace:operation
// overwrites silently — last write wins.
func (r *Registry) Register(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[ext.Key()] = ext
}

// Lookup returns the extension registered for namespace:operation.
func (r *Registry) Lookup(namespace, operation string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[namespace+":"+operation]
	return ext, ok
}

// Namespaces returns the distinct registered namespaces (diagnostics only).
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, ext := range r.extensions {
		if !seen[ext.Namespace] {
			seen[ext.Namespace] = true
			out = append(out, ext.Namespace)
		}
	}
	return out
}

// ResolveDependencies validates the extension's declared requirements against
// the available set and returns the subset the handler will receive. A
// missing requirement is a MissingDependencyError naming both the extension
// and the dependency.
func (r *Registry) ResolveDependencies(ext Extension, available Dependencies) (Dependencies, error) {
	resolved := make(Dependencies, len(ext.Requires))
	for _, name := range ext.Requires {
		dep, ok := available[name]
		if !ok || dep == nil {
			return nil, &MissingDependencyError{Extension: ext.Key(), Dependency: name}
		}
		resolved[name] = dep
	}
	return resolved, nil
}
