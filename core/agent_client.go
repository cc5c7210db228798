package core

import "context"

// AgentClient invokes a named capability on a remote agent. The payload and
// result are structured JSON-like values; transport, auth and retry policy
// belong to the implementation.
type AgentClient interface {
	Invoke(ctx context.Context, agentURL, capability string, payload map[string]any) (map[string]any, error)
}
