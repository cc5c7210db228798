package template

import "fmt"

// UnknownExtensionError indicates that no handler is registered for the
// macro's namespace:operation pair.
type UnknownExtensionError struct {
	Namespace string
	Operation string
}

// Error implements the error interface.
func (e *UnknownExtensionError) Error() string {
	return fmt.Sprintf("unknown extension %s:%s", e.Namespace, e.Operation)
}

// ExtensionArgumentError indicates a missing or malformed macro argument,
// including invalid embedded JSON.
type ExtensionArgumentError struct {
	Argument string // argument name or raw segment
	Value    string // offending value (may be empty)
	Reason   string
}

// Error implements the error interface.
func (e *ExtensionArgumentError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid extension argument %q (value %q): %s", e.Argument, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid extension argument %q: %s", e.Argument, e.Reason)
}

// MissingDependencyError indicates that an extension declared a dependency
// that was not injected for this render.
type MissingDependencyError struct {
	Extension  string // namespace:operation
	Dependency string
}

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("extension %s requires dependency %q which was not provided", e.Extension, e.Dependency)
}

// MissingVariableError indicates an unresolved {{name}} placeholder after all
// macros resolved. This is intentionally strict (no silent blanking) so
// callers notice template/variable-set mismatches early.
type MissingVariableError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q", e.Name)
}

// NotConvergedError indicates the macro resolution loop exceeded its pass cap
// without eliminating every macro span.
type NotConvergedError struct {
	Passes int
}

// Error implements the error interface.
func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("macro resolution did not converge after %d passes", e.Passes)
}

// ExtensionError wraps a failure raised by an extension handler. The render
// aborts; macro side effects are not retried because they may not be
// idempotent.
type ExtensionError struct {
	Namespace string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %s:%s failed: %v", e.Namespace, e.Operation, e.Err)
}

// Unwrap returns the underlying handler error.
func (e *ExtensionError) Unwrap() error { return e.Err }
