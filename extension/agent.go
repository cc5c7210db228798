package extension

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/promptmesh/core"
	"github.com/hupe1980/promptmesh/template"
)

type invokeParams struct {
	URL        string         `arg:"url"`
	Capability string         `arg:"capability"`
	Payload    map[string]any `arg:"payload"`
}

// RegisterAgent registers the agent namespace:
//
//	{{agent:invoke:url=...,capability=...,payload={...}}}
//
// The remote agent's structured result is JSON-encoded inline (or into an
// output variable when requested).
func RegisterAgent(r *template.Registry) {
	r.Register(template.Extension{
		Namespace: "agent",
		Operation: "invoke",
		Requires:  []string{template.DepAgent},
		Handler:   agentInvoke,
	})
}

func agentInvoke(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
	var p invokeParams
	if err := args.Decode(&p); err != nil {
		return "", err
	}
	if p.URL == "" {
		return "", &template.ExtensionArgumentError{Argument: "url", Reason: "required"}
	}
	if p.Capability == "" {
		return "", &template.ExtensionArgumentError{Argument: "capability", Reason: "required"}
	}

	client := deps[template.DepAgent].(core.AgentClient)
	result, err := client.Invoke(ctx, p.URL, p.Capability, p.Payload)
	if err != nil {
		return "", fmt.Errorf("agent invoke %s: %w", p.Capability, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode agent result: %w", err)
	}
	return string(data), nil
}
