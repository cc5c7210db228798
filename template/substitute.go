package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// variablePattern matches remaining {{name}} placeholders once every macro
// span has been resolved. Nested braces are not expected at this stage.
var variablePattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Substitute replaces each {{name}} placeholder with the stringified value
// from vars, trimming whitespace around the name. A nil value becomes the
// empty string; a name absent from the table is a MissingVariableError. An
// unterminated {{ never matches and is left untouched as literal text.
func Substitute(tmpl string, vars map[string]any) (string, error) {
	matches := variablePattern.FindAllStringSubmatchIndex(tmpl, -1)
	if len(matches) == 0 {
		return tmpl, nil
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	last := 0
	for _, m := range matches {
		name := strings.TrimSpace(tmpl[m[2]:m[3]])
		value, ok := vars[name]
		if !ok {
			return "", &MissingVariableError{Name: name}
		}
		b.WriteString(tmpl[last:m[0]])
		b.WriteString(Stringify(value))
		last = m[1]
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// Stringify renders a variable value for splicing into a template. Strings
// pass through, nil becomes empty, structured values are JSON-encoded, and
// scalars use their default formatting.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
