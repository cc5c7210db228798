package pipeline

import "fmt"

// EmptyRenderedPromptError indicates the assembled template rendered to
// nothing but whitespace. The provider is never called in this case and no
// turns are persisted.
type EmptyRenderedPromptError struct {
	Pattern string
}

func (e *EmptyRenderedPromptError) Error() string {
	return fmt.Sprintf("pattern %q rendered to an empty prompt", e.Pattern)
}

// StructuredOutputError indicates the provider's text could not be parsed
// into the requested output model. The conversation turns are already
// committed when this error surfaces, so the exchange is not lost.
type StructuredOutputError struct {
	Err error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("structured output: %v", e.Err)
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }
