// Package memoryservice contains concrete MemoryService implementations. The
// service interface and SearchResult type reside in the core package. Import
// github.com/hupe1980/promptmesh/core and depend on core.MemoryService in
// your code; select an implementation (like the in-memory store below) at
// wiring time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (vector databases, embedding indexes, etc.) to be added without
// introducing dependency cycles.
package memoryservice
