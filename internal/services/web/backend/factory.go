package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	platformotel "github.com/louisbranch/spabooking/internal/platform/otel"
	"github.com/louisbranch/spabooking/internal/platform/timeouts"
)

// DefaultBaseURL is the backend API root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// DefaultCookieName is the backend's session cookie.
const DefaultCookieName = "JSESSIONID"

// Config configures the backend client factory.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CookieName string
	// Transport overrides the outbound transport. Tests point it at httptest.
	Transport http.RoundTripper
}

// Factory builds per-browser-session clients against one backend.
type Factory struct {
	base       *url.URL
	timeout    time.Duration
	cookieName string
	transport  http.RoundTripper
	logger     *zap.Logger
}

// NewFactory validates cfg and returns a Factory.
func NewFactory(cfg Config, logger *zap.Logger) (*Factory, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base url %q must be http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backend base url %q has no host", raw)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.BackendRequest
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Factory{
		base:       base,
		timeout:    timeout,
		cookieName: cookieName,
		transport:  transport,
		logger:     logging.OrNop(logger),
	}, nil
}

// BaseURL returns a copy of the backend root.
func (f *Factory) BaseURL() *url.URL {
	u := *f.base
	return &u
}

// CookieName returns the backend session cookie name.
func (f *Factory) CookieName() string {
	return f.cookieName
}

// NewJar returns an empty cookie jar scoped by the public suffix list.
func (f *Factory) NewJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create backend cookie jar: %w", err)
	}
	return jar, nil
}

// NewClient returns a client bound to jar. onUnauthorized runs whenever a
// call outside /auth/ comes back 401; it may be nil.
func (f *Factory) NewClient(jar http.CookieJar, onUnauthorized func(context.Context)) *Client {
	transport := f.transport
	if onUnauthorized != nil {
		transport = &unauthorizedTransport{
			next:           transport,
			authPrefix:     strings.TrimRight(f.base.Path, "/") + "/auth/",
			onUnauthorized: onUnauthorized,
		}
	}
	return &Client{
		base: f.base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   f.timeout,
			Transport: transport,
		},
		logger: f.logger,
		tracer: platformotel.Tracer(tracerName),
	}
}

// SeedSessionCookie copies a browser-held backend session value into jar.
func (f *Factory) SeedSessionCookie(jar http.CookieJar, value string) {
	value = strings.TrimSpace(value)
	if jar == nil || value == "" {
		return
	}
	jar.SetCookies(f.base, []*http.Cookie{{
		Name:  f.cookieName,
		Value: value,
		Path:  "/",
	}})
}

// SessionCookie returns the backend session value currently held in jar.
func (f *Factory) SessionCookie(jar http.CookieJar) (string, bool) {
	if jar == nil {
		return "", false
	}
	for _, cookie := range jar.Cookies(f.base) {
		if cookie.Name == f.cookieName && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

// unauthorizedTransport reports 401 responses from non-auth endpoints. Auth
// endpoints answer 401 as part of their contract (bad credentials, no
// session) and are left to their callers.
type unauthorizedTransport struct {
	next           http.RoundTripper
	authPrefix     string
	onUnauthorized func(context.Context)
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode == http.StatusUnauthorized && !strings.HasPrefix(req.URL.Path, t.authPrefix) {
		t.onUnauthorized(req.Context())
	}
	return resp, nil
}
