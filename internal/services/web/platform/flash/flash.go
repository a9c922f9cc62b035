// Package flash carries one-time notices across a redirect.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/platform/sessioncookie"
)

// CookieName holds the pending notice.
const CookieName = "spabooking_flash"

// Kind selects notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notice references a localized message by key.
type Notice struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

// Success returns a success notice for key.
func Success(key string) Notice {
	return Notice{Kind: KindSuccess, Key: key}
}

// Error returns an error notice for key.
func Error(key string) Notice {
	return Notice{Kind: KindError, Key: key}
}

// Writer stores notices under one cookie policy.
type Writer struct {
	Policy requestmeta.SchemePolicy
}

// Write stores notice for the next page render.
func (fw Writer) Write(w http.ResponseWriter, r *http.Request, notice Notice) {
	notice, ok := normalize(notice)
	if !ok {
		return
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return
	}
	sessioncookie.Write(w, r, CookieName, base64.RawURLEncoding.EncodeToString(payload), fw.Policy)
}

// ReadAndClear returns the pending notice, if any, and expires it.
func (fw Writer) ReadAndClear(w http.ResponseWriter, r *http.Request) (Notice, bool) {
	raw, ok := sessioncookie.Read(r, CookieName)
	if !ok {
		return Notice{}, false
	}
	sessioncookie.Clear(w, r, CookieName, fw.Policy)
	return decode(raw)
}

func decode(raw string) (Notice, bool) {
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Notice{}, false
	}
	var notice Notice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return Notice{}, false
	}
	return normalize(notice)
}

func normalize(notice Notice) (Notice, bool) {
	notice.Key = strings.TrimSpace(notice.Key)
	notice.Kind = Kind(strings.ToLower(strings.TrimSpace(string(notice.Kind))))
	if notice.Key == "" {
		return Notice{}, false
	}
	switch notice.Kind {
	case KindSuccess, KindInfo, KindError:
		return notice, true
	default:
		return Notice{}, false
	}
}
