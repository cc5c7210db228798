package template

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// RawArguments is the pre-substitution parse of a macro's argument text.
// Values are kept as raw strings because they may still contain {{variable}}
// references; the resolver substitutes those before the values are decoded.
type RawArguments struct {
	// Positional arguments, split on top-level colons.
	Positional []string
	// Named key=value arguments, split on top-level commas.
	Named map[string]string
}

// IsNamed reports whether the arguments use the key=value form.
func (r RawArguments) IsNamed() bool { return r.Named != nil }

// Arguments is the handler-facing view of a macro invocation's arguments,
// produced after variable substitution and JSON decoding. Values that looked
// like JSON objects/arrays are structured (map[string]any / []any); everything
// else is a string.
type Arguments struct {
	Positional []string
	Named      map[string]any
}

// Get returns a named argument value and an existence flag.
func (a Arguments) Get(key string) (any, bool) {
	v, ok := a.Named[key]
	return v, ok
}

// String returns the named argument as a string, or "" when absent.
func (a Arguments) String(key string) string {
	v, ok := a.Named[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Decode binds the named arguments onto a typed parameter struct using
// weakly-typed conversion (so limit=5 arrives as an int field even though the
// grammar carries it as a string). A mismatch surfaces as an
// ExtensionArgumentError.
func (a Arguments) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "arg",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(a.Named); err != nil {
		return &ExtensionArgumentError{Argument: "named arguments", Reason: err.Error()}
	}
	return nil
}

// ParseArguments splits a macro's raw argument text (everything after
// namespace:operation:) into either positional or named form.
//
// Grammar: if the first top-level segment contains '=', the arguments are
// key=value pairs split on top-level ','; otherwise they are positional
// values split on top-level ':'. Values that are well-formed JSON objects or
// arrays are consumed whole — interior colons, commas and braces never act as
// delimiters. A value that starts with '{' or '[' but is not valid JSON is an
// ExtensionArgumentError, except when it still carries an unresolved
// {{variable}} reference, in which case validation is deferred until after
// substitution.
func ParseArguments(raw string) (RawArguments, error) {
	if strings.TrimSpace(raw) == "" {
		return RawArguments{}, nil
	}
	if firstSegmentHasAssign(raw) {
		named := make(map[string]string)
		for _, pair := range splitTopLevel(raw, ',') {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			eq := indexTopLevel(pair, '=')
			if eq < 0 {
				return RawArguments{}, &ExtensionArgumentError{Argument: pair, Reason: "expected key=value"}
			}
			key := strings.TrimSpace(pair[:eq])
			value := strings.TrimSpace(pair[eq+1:])
			if key == "" {
				return RawArguments{}, &ExtensionArgumentError{Argument: pair, Reason: "empty argument name"}
			}
			if err := checkJSONValue(key, value); err != nil {
				return RawArguments{}, err
			}
			named[key] = value
		}
		return RawArguments{Named: named}, nil
	}

	var positional []string
	for i, seg := range splitTopLevel(raw, ':') {
		seg = strings.TrimSpace(seg)
		if err := checkJSONValue(fmt.Sprintf("arg%d", i), seg); err != nil {
			return RawArguments{}, err
		}
		positional = append(positional, seg)
	}
	return RawArguments{Positional: positional}, nil
}

// DecodeValue converts a substituted raw value into its final form: valid
// JSON objects/arrays become structured values, anything else stays a string.
func DecodeValue(name, value string) (any, error) {
	trimmed := strings.TrimSpace(value)
	if !looksLikeJSON(trimmed) {
		return value, nil
	}
	if !gjson.Valid(trimmed) {
		return nil, &ExtensionArgumentError{Argument: name, Value: trimmed, Reason: "malformed JSON value"}
	}
	return gjson.Parse(trimmed).Value(), nil
}

func looksLikeJSON(s string) bool {
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

// checkJSONValue validates a JSON-looking value at parse time. Values still
// holding {{variable}} references are skipped; they are validated after
// substitution by DecodeValue.
func checkJSONValue(name, value string) error {
	trimmed := strings.TrimSpace(value)
	if !looksLikeJSON(trimmed) || strings.Contains(trimmed, "{{") {
		return nil
	}
	if !gjson.Valid(trimmed) {
		return &ExtensionArgumentError{Argument: name, Value: trimmed, Reason: "malformed JSON value"}
	}
	return nil
}

// firstSegmentHasAssign reports whether a '=' occurs at top level before the
// first top-level ':' or ','. That prefix is the grammar's form selector.
func firstSegmentHasAssign(s string) bool {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == '=':
			return true
		case depth == 0 && (c == ':' || c == ','):
			return false
		}
	}
	return false
}

// splitTopLevel splits s on delim occurrences outside JSON braces/brackets,
// double-quoted strings and nested {{...}} spans.
func splitTopLevel(s string, delim byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == delim:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexTopLevel returns the offset of the first top-level occurrence of c,
// or -1 when none exists.
func indexTopLevel(s string, c byte) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuote:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inQuote = false
			}
		case ch == '"':
			inQuote = true
		case ch == '{' || ch == '[':
			depth++
		case ch == '}' || ch == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && ch == c:
			return i
		}
	}
	return -1
}
