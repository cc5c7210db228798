package extension

import (
	"context"
	"strings"

	"github.com/hupe1980/promptmesh/template"
)

// RegisterText registers the text namespace of pure string helpers:
//
//	{{text:upper:value}} {{text:lower:value}} {{text:title:value}} {{text:trim:value}}
func RegisterText(r *template.Registry) {
	register := func(op string, fn func(string) string) {
		r.Register(template.Extension{
			Namespace: "text",
			Operation: op,
			Handler: func(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
				if len(args.Positional) == 0 {
					return "", &template.ExtensionArgumentError{Argument: "value", Reason: "required"}
				}
				return fn(args.Positional[0]), nil
			},
		})
	}

	register("upper", strings.ToUpper)
	register("lower", strings.ToLower)
	register("trim", strings.TrimSpace)
	register("title", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})
}
