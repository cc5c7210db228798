// Package conversation contains concrete ConversationStore implementations.
// The aggregate and store interface reside in the core package; this package
// ships a volatile in-memory store for tests and demos and (under
// conversation/sqlite) a durable store backed by modernc.org/sqlite.
package conversation
