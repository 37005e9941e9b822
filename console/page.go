package console

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"node.town/vaani/lang"
	"node.town/vaani/pipeline"
)

// Page renders the console shell. Everything after first paint is driven
// by static/app.js.
func Page(snap pipeline.Snapshot, catalog []lang.Language) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html><html><head><meta charset="utf-8"><title>vaani</title>`)
		b.WriteString(`<link rel="stylesheet" href="/static/app.css"></head><body>`)
		b.WriteString(`<header><h1>vaani</h1><span id="state" class="state-` + templ.EscapeString(string(snap.State)) + `">`)
		b.WriteString(templ.EscapeString(string(snap.State)))
		b.WriteString(`</span></header><section class="languages">`)
		languageSelect(&b, "source", snap.Languages.Source, catalog)
		b.WriteString(`<button id="swap" title="Swap languages">&#8646;</button>`)
		languageSelect(&b, "target", snap.Languages.Target, catalog)
		b.WriteString(`</section><section class="texts">`)
		b.WriteString(`<div><h2>You said</h2><p id="transcript">` + templ.EscapeString(snap.Transcript) + `</p></div>`)
		b.WriteString(`<div><h2>Translation</h2><p id="translation">` + templ.EscapeString(snap.Translation) + `</p></div>`)
		b.WriteString(`</section><p id="message">` + templ.EscapeString(snap.Message) + `</p>`)
		b.WriteString(`<section class="controls"><button id="talk">Hold to talk</button>`)
		b.WriteString(`<button id="replay">Replay</button><button id="clear">Clear history</button></section>`)
		b.WriteString(`<section><h2>History</h2><ol id="history"></ol></section>`)
		b.WriteString(`<audio id="player"></audio><script src="/static/app.js"></script></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func languageSelect(b *strings.Builder, side, selected string, catalog []lang.Language) {
	b.WriteString(`<select id="` + side + `" data-side="` + side + `">`)
	for _, l := range catalog {
		b.WriteString(`<option value="` + templ.EscapeString(l.Code) + `"`)
		if l.Code == selected {
			b.WriteString(` selected`)
		}
		b.WriteString(`>` + templ.EscapeString(l.Name) + `</option>`)
	}
	b.WriteString(`</select>`)
}
