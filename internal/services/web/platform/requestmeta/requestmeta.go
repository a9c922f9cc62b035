// Package requestmeta resolves request scheme and origin facts.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is only honored when TrustForwardedProto is set, i.e.
// when the service runs behind a proxy that overwrites it.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// IsHTTPS reports whether r should be treated as HTTPS under policy.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return scheme(r, policy) == "https"
}

// SameOrigin reports whether the Origin header, or the Referer when Origin
// is absent, names the host r was sent to. Browsers send Origin on form
// posts and websocket handshakes.
func SameOrigin(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	self := endpointOf(scheme(r, policy), r.Host)
	if self.host == "" {
		return false
	}
	claim := strings.TrimSpace(r.Header.Get("Origin"))
	if claim == "" {
		claim = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claim == "" {
		return false
	}
	parsed, err := url.Parse(claim)
	if err != nil || parsed.Scheme == "" {
		return false
	}
	return endpointOf(parsed.Scheme, parsed.Host) == self
}

type endpoint struct {
	scheme string
	host   string
	port   string
}

func endpointOf(rawScheme, rawHost string) endpoint {
	parsed, err := url.Parse("//" + strings.TrimSpace(rawHost))
	if err != nil {
		return endpoint{}
	}
	e := endpoint{
		scheme: strings.ToLower(strings.TrimSpace(rawScheme)),
		host:   strings.ToLower(parsed.Hostname()),
		port:   parsed.Port(),
	}
	if e.port == "" {
		switch e.scheme {
		case "https":
			e.port = "443"
		case "http":
			e.port = "80"
		}
	}
	return e
}

func scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		if forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
