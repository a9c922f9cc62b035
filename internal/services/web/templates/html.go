package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// html accumulates markup and keeps the first write error.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) render(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

// attr is one attribute for open. A nil *string is skipped and a bool
// renders as a bare flag when true.
type attr = templ.KeyValue[string, any]

func kv(key string, value any) attr {
	if u, ok := value.(templ.SafeURL); ok {
		value = string(u)
	}
	return templ.KV(key, value)
}

// class skips the attribute when name is empty.
func class(name string) attr {
	if name == "" {
		return kv("class", (*string)(nil))
	}
	return kv("class", name)
}

func (h *html) open(name string, attrs ...attr) {
	h.raw("<" + name)
	if h.err == nil {
		h.err = templ.RenderAttributes(h.ctx, h.w, templ.OrderedAttributes(attrs))
	}
	h.raw(">")
}

func (h *html) tag(name, cls, body string) {
	h.open(name, class(cls))
	h.text(body)
	h.raw("</" + name + ">")
}

func (h *html) link(href, label, cls string) {
	h.open("a", kv("href", templ.URL(href)), class(cls))
	h.text(label)
	h.raw("</a>")
}

func (h *html) formOpen(action, method string) {
	h.open("form", kv("method", method), kv("action", templ.URL(action)))
}

func (h *html) hidden(name, value string) {
	h.open("input", kv("type", "hidden"), kv("name", name), kv("value", value))
}

func (h *html) field(kind, name, label, value string, required bool) {
	h.raw(`<label>`)
	h.text(label)
	h.open("input", kv("type", kind), kv("name", name), kv("value", value), kv("required", required))
	h.raw("</label>")
}

func (h *html) textarea(name, label, value string) {
	h.raw(`<label>`)
	h.text(label)
	h.open("textarea", kv("name", name))
	h.text(value)
	h.raw("</textarea></label>")
}

type option struct {
	Value string
	Label string
}

func (h *html) selectField(name, label, selected string, options []option) {
	h.raw(`<label>`)
	h.text(label)
	h.open("select", kv("name", name))
	for _, opt := range options {
		h.open("option", kv("value", opt.Value), kv("selected", opt.Value == selected))
		h.text(opt.Label)
		h.raw("</option>")
	}
	h.raw("</select></label>")
}

func (h *html) submit(label, cls string) {
	h.open("button", kv("type", "submit"), class(cls))
	h.text(label)
	h.raw("</button>")
}

// action renders a single-button POST form carrying the given fields.
func (h *html) action(path, label, cls string, fields ...string) {
	h.formOpen(path, "post")
	for i := 0; i+1 < len(fields); i += 2 {
		h.hidden(fields[i], fields[i+1])
	}
	h.submit(label, cls)
	h.raw("</form>")
}

func (h *html) formError(message string) {
	if message == "" {
		return
	}
	h.raw(`<p class="form-error" role="alert">`)
	h.text(message)
	h.raw("</p>")
}

func (h *html) empty(message string) {
	h.tag("p", "empty", message)
}

// Form carries submitted values and an error message back into a form.
type Form struct {
	Values url.Values
	Error  string
}

// Value returns the submitted value for name.
func (f Form) Value(name string) string {
	if f.Values == nil {
		return ""
	}
	return f.Values.Get(name)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
