// Package agentclient provides AgentClient implementations for calling
// capabilities on remote agents. The HTTP client speaks a minimal JSON
// protocol: POST {"capability": ..., "payload": {...}} to the agent URL and
// decode the JSON object response.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/promptmesh/core"
)

// DefaultTimeout bounds a single remote capability invocation.
const DefaultTimeout = 30 * time.Second

// HTTPOptions configure the HTTP agent client.
type HTTPOptions struct {
	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// Headers are attached to every request (auth tokens, tracing ids).
	Headers map[string]string
}

// HTTPClient is an AgentClient over plain HTTP+JSON.
type HTTPClient struct {
	httpClient *http.Client
	headers    map[string]string
}

// invokeRequest is the wire shape of a capability invocation.
type invokeRequest struct {
	Capability string         `json:"capability"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewHTTPClient constructs an HTTP agent client.
func NewHTTPClient(optFns ...func(o *HTTPOptions)) *HTTPClient {
	opts := HTTPOptions{
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HTTPClient{httpClient: opts.HTTPClient, headers: opts.Headers}
}

// Invoke posts the capability invocation to the agent URL and decodes the
// structured JSON response. Non-2xx statuses and malformed bodies are errors.
func (c *HTTPClient) Invoke(ctx context.Context, agentURL, capability string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(invokeRequest{Capability: capability, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("agentclient: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agentclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agentclient: invoke %s at %s: %w", capability, agentURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("agentclient: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("agentclient: %s at %s returned status %d: %s", capability, agentURL, resp.StatusCode, truncate(string(data), 256))
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("agentclient: decode response from %s: %w", agentURL, err)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Interface compliance (compile-time assertion)
var _ core.AgentClient = (*HTTPClient)(nil)
