package memoryservice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/promptmesh/core"
)

// storedMemory is the internal representation persisted by InMemoryService.
// It mirrors the core.SearchResult shape (ID, content, metadata) without a
// score field since scoring is trivial here.
type storedMemory struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemoryService is a naive process-local MemoryService offering append-only
// stored memories with substring Search.
//
// Concurrency: protected by RWMutex.
// Search: linear scan with case-insensitive substring matching assigning a
// constant score of 1.0 to every hit, preserving insertion order. Suitable
// for tests and demos; swap for a vector store or semantic index for
// production retrieval.
type InMemoryService struct {
	mu      sync.RWMutex
	storage map[string][]storedMemory // userID -> stored memories in insertion order
}

// NewInMemoryService creates a new in-memory memory service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{storage: make(map[string][]storedMemory)}
}

// Search performs a simple substring match over stored memories, returning up
// to limit hits in insertion order. Each result receives a constant score of 1.0.
func (m *InMemoryService) Search(ctx context.Context, userID, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	memories, exists := m.storage[userID]
	if !exists {
		return []core.SearchResult{}, nil
	}
	needle := strings.ToLower(query)
	results := make([]core.SearchResult, 0, limit)
	for _, stored := range memories {
		if len(results) >= limit {
			break
		}
		if query == "" || strings.Contains(strings.ToLower(stored.content), needle) {
			md := make(map[string]any, len(stored.metadata))
			for k, v := range stored.metadata {
				md[k] = v
			}
			results = append(results, core.SearchResult{ID: stored.id, Content: stored.content, Score: 1.0, Metadata: md})
		}
	}
	return results, nil
}

// Add appends a new stored memory generating a simple incremental id.
func (m *InMemoryService) Add(ctx context.Context, userID, content string, metadata map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("mem_%d", len(m.storage[userID]))
	m.storage[userID] = append(m.storage[userID], storedMemory{id: id, content: content, metadata: metadata})
	return id, nil
}
