// Package template implements the PromptMesh macro/extension language: a
// small rendering engine that scans a prompt template for
// {{namespace:operation:args}} macro invocations, dispatches them to
// registered extension handlers, and substitutes plain {{variable}}
// placeholders.
//
// Rendering proceeds in two phases. The Resolver repeatedly locates the first
// macro span, parses its arguments (substituting already-known variables into
// them), invokes the handler with the collaborators injected for the render,
// and splices the result back into the template — either inline or into a
// named output variable consumable by later macros. Once no macro spans
// remain, a final substitution pass replaces the remaining {{name}}
// placeholders and fails loudly on unresolved names.
//
// Macros execute strictly left-to-right, one at a time, so an earlier macro's
// output variable is always visible to a later macro's arguments. The engine
// deliberately offers no loops or conditionals; extensions are trusted,
// in-process plugins.
package template
