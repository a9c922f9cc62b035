package web

import (
	"flag"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8086" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8086")
	}
	if cfg.BackendURL != "http://localhost:8080/api" {
		t.Fatalf("BackendURL = %q, want %q", cfg.BackendURL, "http://localhost:8080/api")
	}
	if cfg.BackendCookie != "JSESSIONID" {
		t.Fatalf("BackendCookie = %q, want JSESSIONID", cfg.BackendCookie)
	}
	if cfg.SessionIdleTTL != 2*time.Hour {
		t.Fatalf("SessionIdleTTL = %v, want 2h", cfg.SessionIdleTTL)
	}
	if cfg.SessionAnonTTL != 15*time.Minute {
		t.Fatalf("SessionAnonTTL = %v, want 15m", cfg.SessionAnonTTL)
	}
	if cfg.CachePath != "" {
		t.Fatalf("CachePath = %q, want empty", cfg.CachePath)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("SPABOOKING_WEB_BACKEND_URL", "http://api:9000/api")
	t.Setenv("SPABOOKING_WEB_HTTP_ADDR", "0.0.0.0:80")
	t.Setenv("SPABOOKING_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9002", "-login-burst", "2"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.BackendURL != "http://api:9000/api" {
		t.Fatalf("BackendURL = %q, want env value", cfg.BackendURL)
	}
	if cfg.HTTPAddr != "127.0.0.1:9002" {
		t.Fatalf("HTTPAddr = %q, want flag value", cfg.HTTPAddr)
	}
	if cfg.LoginBurst != 2 {
		t.Fatalf("LoginBurst = %d, want 2", cfg.LoginBurst)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestParseConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("SPABOOKING_WEB_CATALOG_TTL", "soon")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestServerConfigCarriesPolicyAndLimits(t *testing.T) {
	cfg := Config{
		HTTPAddr:            ":8086",
		BackendURL:          "http://api/api",
		LoginRate:           0.5,
		LoginBurst:          3,
		SessionAnonTTL:      5 * time.Minute,
		TrustForwardedProto: true,
	}
	got := cfg.serverConfig(nil)
	if !got.Policy.TrustForwardedProto {
		t.Fatal("Policy.TrustForwardedProto = false, want true")
	}
	if got.Sessions.LoginRate != rate.Limit(0.5) || got.Sessions.LoginBurst != 3 {
		t.Fatalf("Sessions = %+v, want rate 0.5 burst 3", got.Sessions)
	}
	if got.Sessions.AnonymousTTL != 5*time.Minute {
		t.Fatalf("Sessions.AnonymousTTL = %v, want 5m", got.Sessions.AnonymousTTL)
	}
	if got.Backend.BaseURL != "http://api/api" {
		t.Fatalf("Backend.BaseURL = %q", got.Backend.BaseURL)
	}
}
