// Package core provides the foundational domain types and interfaces used by
// PromptMesh. It defines the core abstractions for:
//
//   - Conversations (append-only turn histories keyed by session id)
//   - Domain events (immutable records of committed mutations)
//   - Pluggable collaborators: the LLM provider, the memory service, the
//     remote agent client, the conversation store and the event publisher
//
// The package intentionally keeps implementation concerns (persistence,
// template rendering, concrete providers) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
