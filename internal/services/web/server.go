package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/platform/timeouts"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/catalog"
	"github.com/louisbranch/spabooking/internal/services/web/guard"
	"github.com/louisbranch/spabooking/internal/services/web/integration/cache"
	"github.com/louisbranch/spabooking/internal/services/web/live"
	"github.com/louisbranch/spabooking/internal/services/web/pages"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/metrics"
	"github.com/louisbranch/spabooking/internal/services/web/platform/observability"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/sessions"
	"github.com/louisbranch/spabooking/internal/services/web/static"
	webstorage "github.com/louisbranch/spabooking/internal/services/web/storage"
)

//go:embed routes.yaml
var routesYAML []byte

// DefaultCachePurgeInterval is how often expired catalog entries are removed.
const DefaultCachePurgeInterval = 10 * time.Minute

// Config defines the web server configuration.
type Config struct {
	HTTPAddr string
	Backend  backend.Config
	// CachePath enables the on-disk catalog cache. Empty keeps the catalog
	// uncached.
	CachePath  string
	CatalogTTL time.Duration
	Sessions   sessions.Config
	// SweepInterval defaults to a quarter of the anonymous session TTL.
	SweepInterval time.Duration
	Policy        requestmeta.SchemePolicy
	Logger        *zap.Logger
}

// Dependencies are the long-lived collaborators the handler serves from.
type Dependencies struct {
	Registry *sessions.Registry
	Catalog  *catalog.Service
	Policy   requestmeta.SchemePolicy
	Logger   *zap.Logger
}

// Server hosts the web front end.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	registry      *sessions.Registry
	catalog       *catalog.Service
	cacheStore    webstorage.CacheStore
	sweepInterval time.Duration
	logger        *zap.Logger
	closeOnce     sync.Once
}

// RouteTable returns the navigation table compiled into the binary.
func RouteTable() (guard.Table, error) {
	return guard.ParseTable(routesYAML)
}

// NewHandler builds the full HTTP handler: operational endpoints, static
// assets, the live session channel and every page of the route table
// behind its guard.
func NewHandler(deps Dependencies) (http.Handler, error) {
	if deps.Registry == nil {
		return nil, errors.New("session registry is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	logger := logging.OrNop(deps.Logger)

	table, err := RouteTable()
	if err != nil {
		return nil, fmt.Errorf("load route table: %w", err)
	}
	handlers := pages.New(pages.Config{
		Catalog:  deps.Catalog,
		Registry: deps.Registry,
		Policy:   deps.Policy,
		Logger:   logger,
	})
	byPage := handlers.Pages()
	routeGuard := guard.New(logger, sessions.StoreOf)

	app := http.NewServeMux()
	app.Handle(routepath.Logout, handlers.Logout())
	app.Handle(routepath.LiveSession, live.NewHandler(table, sessions.StoreOf, deps.Policy, logger))
	for _, route := range table.Routes {
		page, ok := byPage[route.Page]
		if !ok {
			return nil, fmt.Errorf("route %s: no handler for page %q", route.Path, route.Page)
		}
		pattern := route.Path
		if pattern == routepath.Root {
			pattern = "/{$}"
		}
		app.Handle(pattern, routeGuard.Middleware(route)(page))
	}
	app.Handle(routepath.Root, handlers.NotFound())

	root := http.NewServeMux()
	root.HandleFunc("GET "+routepath.Health, func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("GET "+routepath.Metrics, metrics.Handler())
	root.Handle("GET "+routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServerFS(static.FS)))
	root.Handle(routepath.Root, httpx.Chain(app, deps.Registry.Middleware(), webi18n.Middleware))

	return httpx.Chain(root,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	), nil
}

// NewServer builds a configured web server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := logging.OrNop(config.Logger)

	factory, err := backend.NewFactory(config.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("configure backend: %w", err)
	}
	store, err := cache.OpenStore(ctx, config.CachePath)
	if err != nil {
		return nil, err
	}
	// The catalog only reads anonymous listings, so it shares one client
	// without a cookie jar.
	catalogService := catalog.New(factory.NewClient(nil, nil), store, config.CatalogTTL, logger)

	sessionCfg := config.Sessions
	sessionCfg.Policy = config.Policy
	registry := sessions.NewRegistry(factory, sessionCfg, logger)

	handler, err := NewHandler(Dependencies{
		Registry: registry,
		Catalog:  catalogService,
		Policy:   config.Policy,
		Logger:   logger,
	})
	if err != nil {
		registry.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("build handler: %w", err)
	}

	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		registry:      registry,
		catalog:       catalogService,
		cacheStore:    store,
		sweepInterval: config.SweepInterval,
		logger:        logger,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// Requests, including open live channels, inherit ctx so they stop when it
// is cancelled; shutdown then drains in-flight requests for a bounded time.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	bgCtx, stopBackground := context.WithCancel(ctx)
	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		s.registry.Run(bgCtx, s.sweepInterval)
	}()
	go func() {
		defer background.Done()
		s.purgeCatalog(bgCtx, DefaultCachePurgeInterval)
	}()
	defer func() {
		stopBackground()
		background.Wait()
	}()

	serveErr := make(chan error, 1)
	s.logger.Info("web listening", zap.String("addr", s.httpAddr))
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) purgeCatalog(ctx context.Context, interval time.Duration) {
	if s.cacheStore == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.catalog.Purge(ctx); err != nil {
				s.logger.Warn("purge catalog cache", zap.Error(err))
			}
		}
	}
}

// Close drops every browser session and closes the catalog cache.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.registry.Close()
		if s.cacheStore != nil {
			if err := s.cacheStore.Close(); err != nil {
				s.logger.Warn("close web cache store", zap.Error(err))
			}
		}
	})
}
