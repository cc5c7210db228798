package core

import "context"

// SearchResult represents a retrieved memory item with a relevance score and
// arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// MemoryService defines persistence + retrieval (search) for long-lived
// memory snippets scoped to a user. Implementations can back search with
// embeddings, keywords or any heuristic; the template engine only depends on
// this contract.
type MemoryService interface {
	Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)
	Add(ctx context.Context, userID, content string, metadata map[string]any) (string, error)
}
