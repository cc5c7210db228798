package template

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/promptmesh/logging"
)

// DefaultMaxPasses bounds the macro resolution loop. Each resolved macro
// consumes one pass; exceeding the cap raises NotConvergedError so a macro
// whose output re-introduces macros cannot spin forever.
const DefaultMaxPasses = 100

// Reserved argument names that redirect a macro's result into the variable
// table instead of splicing it inline.
const (
	outputVariableKey      = "output_variable"
	outputVariableShortKey = "out"
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Dependencies is the engine-wide collaborator set offered to extensions
	// (memory service, agent client, ...). Validated per extension against
	// its declared requirements.
	Dependencies Dependencies

	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// MaxPasses caps the resolution loop; defaults to DefaultMaxPasses.
	MaxPasses int
}

// Resolver orchestrates macro resolution over a template: it repeatedly finds
// the first macro span, parses and substitutes its arguments, dispatches the
// registered handler, and splices the result back in — then rescans from the
// start, never trusting offsets across a mutation. Macros therefore execute
// strictly left-to-right, one at a time, so output variables chain
// deterministically.
//
// A Resolver is immutable after construction and safe for concurrent use;
// each Render owns a private variable table seeded from the caller's map.
type Resolver struct {
	registry  *Registry
	deps      Dependencies
	logger    logging.Logger
	maxPasses int
}

// NewResolver creates a Resolver over the given registry.
func NewResolver(registry *Registry, optFns ...func(o *ResolverOptions)) *Resolver {
	opts := ResolverOptions{
		Dependencies: Dependencies{},
		Logger:       logging.NoOpLogger{},
		MaxPasses:    DefaultMaxPasses,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Resolver{
		registry:  registry,
		deps:      opts.Dependencies,
		logger:    opts.Logger,
		maxPasses: opts.MaxPasses,
	}
}

// Render resolves every macro in tmpl and then performs the final variable
// substitution pass. The caller's vars map is copied, never mutated. Any
// failure aborts the render: handler side effects already performed are not
// rolled back or retried.
func (r *Resolver) Render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	table := make(map[string]any, len(vars))
	for k, v := range vars {
		table[k] = v
	}

	work := tmpl
	passes := 0
	for {
		span, ok := firstMacro(work)
		if !ok {
			break
		}
		if passes >= r.maxPasses {
			return "", &NotConvergedError{Passes: r.maxPasses}
		}
		passes++

		replacement, err := r.resolveMacro(ctx, span, table)
		if err != nil {
			return "", err
		}
		// Splice and rescan from the start; earlier offsets are stale now.
		work = work[:span.Start] + replacement + work[span.End:]
	}

	return Substitute(work, table)
}

// invocation is the parsed namespace:operation:args triple of a macro span.
type invocation struct {
	namespace string
	operation string
	rawArgs   string
}

func parseInvocation(inner string) invocation {
	first := indexTopLevel(inner, ':')
	namespace := strings.TrimSpace(inner[:first])
	rest := inner[first+1:]
	second := indexTopLevel(rest, ':')
	if second < 0 {
		return invocation{namespace: namespace, operation: strings.TrimSpace(rest)}
	}
	return invocation{
		namespace: namespace,
		operation: strings.TrimSpace(rest[:second]),
		rawArgs:   rest[second+1:],
	}
}

// resolveMacro executes one macro invocation and returns the text to splice
// into its span (empty when the result went to an output variable).
func (r *Resolver) resolveMacro(ctx context.Context, span Span, table map[string]any) (string, error) {
	inv := parseInvocation(span.Inner)

	ext, ok := r.registry.Lookup(inv.namespace, inv.operation)
	if !ok {
		return "", &UnknownExtensionError{Namespace: inv.namespace, Operation: inv.operation}
	}

	raw, err := ParseArguments(inv.rawArgs)
	if err != nil {
		return "", err
	}
	args, outputVar, err := finalizeArguments(raw, table)
	if err != nil {
		return "", err
	}

	deps, err := r.registry.ResolveDependencies(ext, r.deps)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := ext.Handler(ctx, args, deps)
	if err != nil {
		r.logger.Error("extension call failed", "extension", ext.Key(), "duration", time.Since(start), "error", err)
		return "", &ExtensionError{Namespace: inv.namespace, Operation: inv.operation, Err: err}
	}
	r.logger.Debug("extension call completed", "extension", ext.Key(), "duration", time.Since(start), "output_variable", outputVar)

	if outputVar != "" {
		// Raw result goes to the table; the span collapses to nothing.
		table[outputVar] = result
		return "", nil
	}
	return result, nil
}

// finalizeArguments substitutes already-known variables into each raw
// argument value, decodes JSON-looking values, and extracts the reserved
// output-variable argument. Unresolved variables inside arguments fail with
// MissingVariableError, consistent with the final substitution pass.
func finalizeArguments(raw RawArguments, table map[string]any) (Arguments, string, error) {
	var outputVar string

	if raw.IsNamed() {
		named := make(map[string]any, len(raw.Named))
		for key, rawValue := range raw.Named {
			value, err := Substitute(rawValue, table)
			if err != nil {
				return Arguments{}, "", err
			}
			if key == outputVariableKey || key == outputVariableShortKey {
				outputVar = strings.TrimSpace(value)
				continue
			}
			decoded, err := DecodeValue(key, value)
			if err != nil {
				return Arguments{}, "", err
			}
			named[key] = decoded
		}
		return Arguments{Named: named}, outputVar, nil
	}

	positional := make([]string, 0, len(raw.Positional))
	for i, rawValue := range raw.Positional {
		value, err := Substitute(rawValue, table)
		if err != nil {
			return Arguments{}, "", err
		}
		if err := checkJSONValue("arg"+strconv.Itoa(i), value); err != nil {
			return Arguments{}, "", err
		}
		positional = append(positional, value)
	}
	return Arguments{Positional: positional}, "", nil
}
