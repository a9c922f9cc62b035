// Package i18n resolves the request language and prints localized copy.
package i18n

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/spabooking/internal/platform/i18n/catalog"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "spabooking_lang"
)

var (
	supported = []language.Tag{language.AmericanEnglish, language.BrazilianPortuguese}
	matcher   = language.NewMatcher(supported)
)

// Default returns the default language tag.
func Default() language.Tag {
	return supported[0]
}

// ParseTag maps value onto a supported tag. Unsupported languages report
// false.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return Default(), false
	}
	_, index, conf := matcher.Match(tag)
	if conf == language.No {
		return Default(), false
	}
	return supported[index], true
}

// MatchTags picks the best supported tag for an Accept-Language list.
func MatchTags(tags []language.Tag) language.Tag {
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}

// ResolveTag determines the best language tag for the request. The bool
// reports whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}
	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if tag, ok := ParseTag(value); ok {
			return tag, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return MatchTags(tags), false
		}
	}
	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Localizer prints catalog messages for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New builds a Localizer for tag.
func New(tag language.Tag) Localizer {
	catalog.Default()
	return Localizer{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the language the localizer prints in.
func (l Localizer) Tag() language.Tag {
	if l.printer == nil {
		return Default()
	}
	return l.tag
}

// T prints key with args. Unknown keys render as the key itself so missing
// copy is visible rather than blank.
func (l Localizer) T(key string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if _, ok := catalog.Default().Message(l.Tag().String(), key); !ok {
		if len(args) == 0 {
			return key
		}
		return key + " " + fmt.Sprint(args...)
	}
	if l.printer == nil {
		return message.NewPrinter(Default()).Sprintf(key, args...)
	}
	return l.printer.Sprintf(key, args...)
}

type contextKey struct{}

// WithLocalizer stores l on ctx.
func WithLocalizer(ctx context.Context, l Localizer) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request localizer, or the default language.
func FromContext(ctx context.Context) Localizer {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(Localizer); ok {
			return l
		}
	}
	return New(Default())
}

// Middleware resolves the request language, persists an explicit choice and
// stores the localizer on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := ResolveTag(r)
		if persist {
			SetLanguageCookie(w, tag)
		}
		next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), New(tag))))
	})
}
