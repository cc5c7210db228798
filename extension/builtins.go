package extension

import "github.com/hupe1980/promptmesh/template"

// RegisterBuiltins registers every built-in namespace on the registry. The
// memory and agent extensions declare their dependencies; invoking one
// without the matching collaborator injected fails with a
// MissingDependencyError at render time.
func RegisterBuiltins(r *template.Registry) {
	RegisterMemory(r)
	RegisterAgent(r)
	RegisterText(r)
	RegisterDateTime(r)
}
