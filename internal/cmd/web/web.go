// Package web parses web command configuration and runs the web server.
package web

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	entrypoint "github.com/louisbranch/spabooking/internal/platform/cmd"
	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/services/web"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/sessions"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"WEB_HTTP_ADDR"              envDefault:"localhost:8086"`
	BackendURL          string        `env:"WEB_BACKEND_URL"            envDefault:"http://localhost:8080/api"`
	BackendTimeout      time.Duration `env:"WEB_BACKEND_TIMEOUT"        envDefault:"5s"`
	BackendCookie       string        `env:"WEB_BACKEND_COOKIE"         envDefault:"JSESSIONID"`
	CachePath           string        `env:"WEB_CACHE_PATH"`
	CatalogTTL          time.Duration `env:"WEB_CATALOG_TTL"            envDefault:"30s"`
	SessionIdleTTL      time.Duration `env:"WEB_SESSION_IDLE_TTL"       envDefault:"2h"`
	SessionAnonTTL      time.Duration `env:"WEB_SESSION_ANONYMOUS_TTL"  envDefault:"15m"`
	LoginRate           float64       `env:"WEB_LOGIN_RATE"             envDefault:"0.33"`
	LoginBurst          int           `env:"WEB_LOGIN_BURST"            envDefault:"5"`
	TrustForwardedProto bool          `env:"WEB_TRUST_FORWARDED_PROTO"  envDefault:"false"`

	Logging logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "spa booking REST API base URL")
	fs.DurationVar(&cfg.BackendTimeout, "backend-timeout", cfg.BackendTimeout, "timeout for one backend call")
	fs.StringVar(&cfg.BackendCookie, "backend-cookie", cfg.BackendCookie, "backend session cookie name")
	fs.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "sqlite file for the catalog cache; empty disables it")
	fs.DurationVar(&cfg.CatalogTTL, "catalog-ttl", cfg.CatalogTTL, "how long public listings are served from cache")
	fs.DurationVar(&cfg.SessionIdleTTL, "session-idle-ttl", cfg.SessionIdleTTL, "drop browser sessions idle this long")
	fs.DurationVar(&cfg.SessionAnonTTL, "session-anonymous-ttl", cfg.SessionAnonTTL, "drop signed-out browser sessions idle this long")
	fs.Float64Var(&cfg.LoginRate, "login-rate", cfg.LoginRate, "sustained login attempts per second per browser")
	fs.IntVar(&cfg.LoginBurst, "login-burst", cfg.LoginBurst, "login attempts allowed back to back")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "honour X-Forwarded-Proto from a proxy")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// serverConfig maps command configuration onto the server.
func (cfg Config) serverConfig(logger *zap.Logger) web.Config {
	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	return web.Config{
		HTTPAddr: cfg.HTTPAddr,
		Backend: backend.Config{
			BaseURL:    cfg.BackendURL,
			Timeout:    cfg.BackendTimeout,
			CookieName: cfg.BackendCookie,
		},
		CachePath:  cfg.CachePath,
		CatalogTTL: cfg.CatalogTTL,
		Sessions: sessions.Config{
			IdleTTL:      cfg.SessionIdleTTL,
			AnonymousTTL: cfg.SessionAnonTTL,
			LoginRate:    rate.Limit(cfg.LoginRate),
			LoginBurst:   cfg.LoginBurst,
		},
		Policy: policy,
		Logger: logger,
	}
}

// Run starts the web server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, cfg.Logging, func(ctx context.Context, logger *zap.Logger) error {
		server, err := web.NewServer(ctx, cfg.serverConfig(logger))
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}
