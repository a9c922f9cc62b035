package templates

import (
	"context"
	"strings"
	"testing"
)

func renderString(t *testing.T, fn func(h *html)) string {
	t.Helper()
	var b strings.Builder
	if err := component(fn).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestAttributesAreEscaped(t *testing.T) {
	t.Parallel()

	got := renderString(t, func(h *html) {
		h.field("text", "q", "Search", `"><script>`, true)
	})
	want := `<label>Search<input type="text" name="q" value="&#34;&gt;&lt;script&gt;" required></label>`
	if got != want {
		t.Fatalf("field = %q, want %q", got, want)
	}
}

func TestLinkSanitizesUnsafeURLs(t *testing.T) {
	t.Parallel()

	got := renderString(t, func(h *html) {
		h.link("javascript:alert(1)", "x", "")
	})
	if want := `<a href="about:invalid#TemplFailedSanitizationURL">x</a>`; got != want {
		t.Fatalf("link = %q, want %q", got, want)
	}

	got = renderString(t, func(h *html) {
		h.link("/spa/3?tab=a&b", "Spa", "active")
	})
	if want := `<a href="/spa/3?tab=a&amp;b" class="active">Spa</a>`; got != want {
		t.Fatalf("link = %q, want %q", got, want)
	}
}

func TestSelectMarksChosenOption(t *testing.T) {
	t.Parallel()

	got := renderString(t, func(h *html) {
		h.selectField("status", "Status", "PENDING", []option{{Value: "", Label: "All"}, {Value: "PENDING", Label: "Pending"}})
	})
	want := `<label>Status<select name="status"><option value="">All</option><option value="PENDING" selected>Pending</option></select></label>`
	if got != want {
		t.Fatalf("select = %q, want %q", got, want)
	}
}

func TestActionCarriesHiddenFields(t *testing.T) {
	t.Parallel()

	got := renderString(t, func(h *html) {
		h.action("/user/membership", "Cancel", "", "action", "cancel")
	})
	want := `<form method="post" action="/user/membership"><input type="hidden" name="action" value="cancel"><button type="submit">Cancel</button></form>`
	if got != want {
		t.Fatalf("action = %q, want %q", got, want)
	}
}
