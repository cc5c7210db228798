package template

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(Extension{
		Namespace: "ns",
		Operation: "op",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			return "X", nil
		},
	})
	r.Register(Extension{
		Namespace: "ns",
		Operation: "answer",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			return "42", nil
		},
	})
	r.Register(Extension{
		Namespace: "ns",
		Operation: "echo",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			return args.String("value"), nil
		},
	})
	r.Register(Extension{
		Namespace: "ns",
		Operation: "fail",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			return "", fmt.Errorf("boom")
		},
	})
	return r
}

func TestResolver_InlineSplice(t *testing.T) {
	res := NewResolver(newTestRegistry())
	out, err := res.Render(context.Background(), "before {{ns:op:a=1,b=2}} after", nil)
	require.NoError(t, err)
	assert.Equal(t, "before X after", out)
	assert.NotContains(t, out, "{{")
}

func TestResolver_OutputVariableChaining(t *testing.T) {
	res := NewResolver(newTestRegistry())
	out, err := res.Render(context.Background(), "A{{ns:answer:out=v}}B{{v}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "AB42", out)
}

func TestResolver_OutputVariableFeedsLaterMacro(t *testing.T) {
	res := NewResolver(newTestRegistry())
	out, err := res.Render(context.Background(), "{{ns:answer:output_variable=v}}{{ns:echo:value={{v}}}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestResolver_UnknownExtension(t *testing.T) {
	res := NewResolver(newTestRegistry())
	_, err := res.Render(context.Background(), "{{foo:bar:x=1}}", nil)
	require.Error(t, err)

	var unknown *UnknownExtensionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "foo", unknown.Namespace)
	assert.Equal(t, "bar", unknown.Operation)
	assert.Contains(t, err.Error(), "foo:bar")
}

func TestResolver_MissingVariableInArgument(t *testing.T) {
	res := NewResolver(newTestRegistry())
	_, err := res.Render(context.Background(), "{{ns:echo:value={{nope}}}}", nil)
	require.Error(t, err)

	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "nope", missing.Name)
}

func TestResolver_ExtensionErrorPropagates(t *testing.T) {
	res := NewResolver(newTestRegistry())
	_, err := res.Render(context.Background(), "{{ns:fail}}", nil)
	require.Error(t, err)

	var extErr *ExtensionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "ns", extErr.Namespace)
	assert.EqualError(t, extErr.Err, "boom")
}

func TestResolver_NotConverged(t *testing.T) {
	r := NewRegistry()
	// A macro that keeps emitting itself never converges.
	r.Register(Extension{
		Namespace: "loop",
		Operation: "forever",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			return "{{loop:forever:x}}", nil
		},
	})
	res := NewResolver(r, func(o *ResolverOptions) { o.MaxPasses = 5 })

	_, err := res.Render(context.Background(), "{{loop:forever:x}}", nil)
	require.Error(t, err)

	var nc *NotConvergedError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, 5, nc.Passes)
}

func TestResolver_DependencyInjection(t *testing.T) {
	type fakeSvc struct{ hits int }
	svc := &fakeSvc{}

	r := NewRegistry()
	r.Register(Extension{
		Namespace: "svc",
		Operation: "hit",
		Requires:  []string{"svc"},
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			deps["svc"].(*fakeSvc).hits++
			return "ok", nil
		},
	})

	res := NewResolver(r, func(o *ResolverOptions) {
		o.Dependencies = Dependencies{"svc": svc}
	})
	out, err := res.Render(context.Background(), "{{svc:hit}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, svc.hits)
}

func TestResolver_MissingDependencyFailsBeforeHandler(t *testing.T) {
	called := false
	r := NewRegistry()
	r.Register(Extension{
		Namespace: "svc",
		Operation: "hit",
		Requires:  []string{"svc"},
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			called = true
			return "", nil
		},
	})

	res := NewResolver(r)
	_, err := res.Render(context.Background(), "{{svc:hit}}", nil)
	require.Error(t, err)

	var missing *MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.False(t, called, "handler must not run with missing dependencies")
}

func TestResolver_StructuredJSONArgument(t *testing.T) {
	var got any
	r := NewRegistry()
	r.Register(Extension{
		Namespace: "ns",
		Operation: "capture",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			got, _ = args.Get("data")
			return "", nil
		},
	})

	res := NewResolver(r)
	_, err := res.Render(context.Background(), `{{ns:capture:data={"a":1,"b":[1,2]}}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{float64(1), float64(2)}}, got)
}

func TestResolver_MacrosResolveLeftToRight(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.Register(Extension{
		Namespace: "trace",
		Operation: "mark",
		Handler: func(ctx context.Context, args Arguments, deps Dependencies) (string, error) {
			order = append(order, args.Positional[0])
			return "", nil
		},
	})

	res := NewResolver(r)
	_, err := res.Render(context.Background(), "{{trace:mark:first}} mid {{trace:mark:second}}", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestResolver_CallerVarsNotMutated(t *testing.T) {
	res := NewResolver(newTestRegistry())
	vars := map[string]any{"x": "1"}
	_, err := res.Render(context.Background(), "{{ns:answer:out=v}}{{x}}", vars)
	require.NoError(t, err)
	_, leaked := vars["v"]
	assert.False(t, leaked, "output variable must not leak into caller's map")
}
