package extension

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/promptmesh/core"
	"github.com/hupe1980/promptmesh/template"
)

// Default result cap for memory:search when no limit argument is given.
const defaultSearchLimit = 5

type searchParams struct {
	Query string `arg:"query"`
	Limit int    `arg:"limit"`
	User  string `arg:"user"`
}

type addParams struct {
	Content  string         `arg:"content"`
	Metadata map[string]any `arg:"metadata"`
	User     string         `arg:"user"`
}

// RegisterMemory registers the memory namespace:
//
//	{{memory:search:query=...,limit=...,user=...}}  formatted hits, one per line
//	{{memory:add:content=...,metadata={...}}}       returns the new memory id
//
// memory:add is typically combined with output_variable so the id lands in
// the variable table instead of the prompt.
func RegisterMemory(r *template.Registry) {
	r.Register(template.Extension{
		Namespace: "memory",
		Operation: "search",
		Requires:  []string{template.DepMemory},
		Handler:   memorySearch,
	})
	r.Register(template.Extension{
		Namespace: "memory",
		Operation: "add",
		Requires:  []string{template.DepMemory},
		Handler:   memoryAdd,
	})
}

func memorySearch(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
	var p searchParams
	if err := args.Decode(&p); err != nil {
		return "", err
	}
	if p.Query == "" {
		return "", &template.ExtensionArgumentError{Argument: "query", Reason: "required"}
	}
	if p.Limit <= 0 {
		p.Limit = defaultSearchLimit
	}

	svc := deps[template.DepMemory].(core.MemoryService)
	results, err := svc.Search(ctx, p.User, p.Query, p.Limit)
	if err != nil {
		return "", fmt.Errorf("memory search: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, "- "+res.Content)
	}
	return strings.Join(lines, "\n"), nil
}

func memoryAdd(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
	var p addParams
	if err := args.Decode(&p); err != nil {
		return "", err
	}
	if p.Content == "" {
		return "", &template.ExtensionArgumentError{Argument: "content", Reason: "required"}
	}

	svc := deps[template.DepMemory].(core.MemoryService)
	id, err := svc.Add(ctx, p.User, p.Content, p.Metadata)
	if err != nil {
		return "", fmt.Errorf("memory add: %w", err)
	}
	return id, nil
}
