package template

import "strings"

// SpanKind classifies a {{...}} span.
type SpanKind int

const (
	// SpanVariable is a plain variable reference: no unescaped top-level colon.
	SpanVariable SpanKind = iota
	// SpanMacro is an extension invocation: namespace:operation:args.
	SpanMacro
)

// Span describes one {{...}} occurrence. Start/End are byte offsets into the
// scanned template covering the braces; Inner is the text between them. After
// any replacement mutates the template, offsets from earlier scans are stale
// and a fresh scan is required.
type Span struct {
	Start int
	End   int
	Inner string
	Kind  SpanKind
}

// Scanner produces a lazy sequence of {{...}} spans over a template string.
// An unterminated {{ (no balanced closing }}) is not an error: it is skipped
// and left for the caller to treat as literal text.
type Scanner struct {
	src string
	pos int
}

// NewScanner creates a scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Reset restarts the scanner at the beginning of the template.
func (s *Scanner) Reset() { s.pos = 0 }

// Next returns the next span, or ok=false when no further spans exist.
func (s *Scanner) Next() (Span, bool) {
	for s.pos < len(s.src) {
		rel := strings.Index(s.src[s.pos:], "{{")
		if rel < 0 {
			return Span{}, false
		}
		open := s.pos + rel
		end, ok := matchSpan(s.src, open)
		if !ok {
			// Unterminated open; step past it so an inner {{...}} is still found.
			s.pos = open + 2
			continue
		}
		inner := s.src[open+2 : end-2]
		s.pos = end
		return Span{Start: open, End: end, Inner: inner, Kind: classify(inner)}, true
	}
	return Span{}, false
}

// matchSpan locates the balanced closing }} for the {{ at offset open.
// Matching respects both nested {{...}} spans and single-brace JSON objects
// inside argument values: a }} only terminates the span when every brace
// opened after the current {{ has been closed.
func matchSpan(src string, open int) (end int, ok bool) {
	depth := 0
	j := open + 2
	for j < len(src) {
		switch {
		case depth == 0 && j+1 < len(src) && src[j] == '}' && src[j+1] == '}':
			return j + 2, true
		case src[j] == '{':
			depth++
			j++
		case src[j] == '}' && depth > 0:
			depth--
			j++
		default:
			j++
		}
	}
	return 0, false
}

// classify decides whether inner text is a macro invocation. A colon at brace
// depth zero (outside any nested {{...}}, embedded JSON object or quoted
// string) marks a macro; everything else is a variable reference. Uses the
// same top-level rules as the argument splitter so a span classified as a
// macro always yields a namespace and operation.
func classify(inner string) SpanKind {
	if indexTopLevel(inner, ':') >= 0 {
		return SpanMacro
	}
	return SpanVariable
}

// firstMacro returns the first macro span in src, skipping plain variable
// references. Variables are only touched by the substitution pass once every
// macro has resolved.
func firstMacro(src string) (Span, bool) {
	sc := NewScanner(src)
	for {
		span, ok := sc.Next()
		if !ok {
			return Span{}, false
		}
		if span.Kind == SpanMacro {
			return span, true
		}
	}
}
