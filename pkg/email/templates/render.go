package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Render renders tpl to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writer accumulates the first write error so templates can be written as
// straight-line code.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// layout wraps body in the shared message frame.
func layout(title, appName string, body func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		w.text(title)
		w.raw(`</title></head><body style="font-family:sans-serif;line-height:1.5;color:#111">`)
		body(w)
		w.raw(`<p style="color:#666;font-size:12px">`)
		w.text(appName)
		w.raw(`</p></body></html>`)
		return w.err
	})
}
