package backend

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

type routeLine struct {
	Method  string
	Pattern string
}

func flatten(prefix string, routes []chi.Route) []routeLine {
	var lines []routeLine
	for _, rt := range routes {
		pattern := prefix + strings.TrimSuffix(rt.Pattern, "/*")
		if rt.SubRoutes != nil {
			lines = append(lines, flatten(pattern, rt.SubRoutes.Routes())...)
			continue
		}
		for method := range rt.Handlers {
			lines = append(lines, routeLine{Method: method, Pattern: pattern})
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Pattern != lines[j].Pattern {
			return lines[i].Pattern < lines[j].Pattern
		}
		return lines[i].Method < lines[j].Method
	})
	return lines
}

// RoutesList renders an index of the mounted routes.
func RoutesList(routes []chi.Route) templ.Component {
	lines := flatten("", routes)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html><html><head><title>vaani backend</title>`)
		b.WriteString(`<style>body{font-family:monospace;margin:2em}td{padding:2px 12px}</style>`)
		b.WriteString(`</head><body><h1>vaani backend</h1><table>`)
		for _, l := range lines {
			b.WriteString(`<tr><td>`)
			b.WriteString(templ.EscapeString(l.Method))
			b.WriteString(`</td><td>`)
			if l.Method == "GET" {
				b.WriteString(`<a href="` + templ.EscapeString(l.Pattern) + `">`)
				b.WriteString(templ.EscapeString(l.Pattern))
				b.WriteString(`</a>`)
			} else {
				b.WriteString(templ.EscapeString(l.Pattern))
			}
			b.WriteString(`</td></tr>`)
		}
		b.WriteString(`</table></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
