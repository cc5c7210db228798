// Package extension ships the built-in macro namespaces: memory (search/add
// against the injected memory service), agent (remote capability invocation),
// text (string helpers) and datetime (timestamp injection). Each extension
// declares the collaborators it requires; the template registry validates
// them before dispatch.
package extension
