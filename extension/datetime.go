package extension

import (
	"context"
	"time"

	"github.com/hupe1980/promptmesh/template"
)

// RegisterDateTime registers the datetime namespace:
//
//	{{datetime:now}} {{datetime:now:2006-01-02}} {{datetime:today}}
//
// The optional positional argument is a Go time layout. Layouts containing
// colons must be passed via a variable, since a bare colon delimits
// positional arguments.
func RegisterDateTime(r *template.Registry) {
	registerDateTime(r, time.Now)
}

func registerDateTime(r *template.Registry, clock func() time.Time) {
	r.Register(template.Extension{
		Namespace: "datetime",
		Operation: "now",
		Handler: func(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
			layout := time.RFC3339
			if len(args.Positional) > 0 && args.Positional[0] != "" {
				layout = args.Positional[0]
			}
			return clock().UTC().Format(layout), nil
		},
	})
	r.Register(template.Extension{
		Namespace: "datetime",
		Operation: "today",
		Handler: func(ctx context.Context, args template.Arguments, deps template.Dependencies) (string, error) {
			return clock().UTC().Format("2006-01-02"), nil
		},
	})
}
