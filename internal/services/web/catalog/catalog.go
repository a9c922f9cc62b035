// Package catalog serves the public spa listings through a derived cache.
//
// Entries are keyed per query and expire after a fixed TTL. When the backend
// is unavailable an expired entry is served instead of failing the page.
package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	webstorage "github.com/louisbranch/spabooking/internal/services/web/storage"
)

const (
	scopeCatalog = "catalog"

	// DefaultTTL bounds how long a listing is served without a backend call.
	DefaultTTL = 30 * time.Second
)

// Source is the anonymous part of the backend the catalog reads from.
type Source interface {
	PublicSpas(ctx context.Context) ([]backend.Spa, error)
	SearchSpas(ctx context.Context, name string) ([]backend.Spa, error)
	Spa(ctx context.Context, spaID int64) (backend.SpaDetail, error)
}

// Service reads public listings, caching them in store when one is set.
type Service struct {
	source Source
	store  webstorage.CacheStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New builds a catalog service. A nil store disables caching.
func New(source Source, store webstorage.CacheStore, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: logging.OrNop(logger).Named("catalog"),
		now:    time.Now,
	}
}

// Spas lists every approved spa.
func (s *Service) Spas(ctx context.Context) ([]backend.Spa, error) {
	return load(ctx, s, "spas:all", s.source.PublicSpas)
}

// Search lists approved spas matching name. A blank name lists everything.
func (s *Service) Search(ctx context.Context, name string) ([]backend.Spa, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Spas(ctx)
	}
	return load(ctx, s, "spas:search:"+strings.ToLower(name), func(ctx context.Context) ([]backend.Spa, error) {
		return s.source.SearchSpas(ctx, name)
	})
}

// Spa returns one spa with its services.
func (s *Service) Spa(ctx context.Context, spaID int64) (backend.SpaDetail, error) {
	return load(ctx, s, "spa:"+strconv.FormatInt(spaID, 10), func(ctx context.Context) (backend.SpaDetail, error) {
		return s.source.Spa(ctx, spaID)
	})
}

// Invalidate drops every cached listing, for example after an approval.
func (s *Service) Invalidate(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteScope(ctx, scopeCatalog); err != nil {
		s.logger.Warn("invalidate catalog cache", zap.Error(err))
	}
}

// Purge removes entries expired for longer than one TTL, keeping recent
// ones available as stale fallbacks.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.PurgeExpired(ctx, s.now().Add(-s.ttl))
}

func load[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	entry, hit := s.lookup(ctx, key, &cached)
	if hit && entry.Fresh(s.now()) {
		return cached, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		if hit && apperrors.Is(err, apperrors.KindUnavailable) {
			s.logger.Warn("serving stale catalog entry",
				zap.String("key", key),
				zap.Time("refreshed_at", entry.RefreshedAt),
				zap.Error(err),
			)
			return cached, nil
		}
		var zero T
		return zero, err
	}
	s.save(ctx, key, value)
	return value, nil
}

func (s *Service) lookup(ctx context.Context, key string, out any) (webstorage.CacheEntry, bool) {
	if s.store == nil {
		return webstorage.CacheEntry{}, false
	}
	entry, ok, err := s.store.GetCacheEntry(ctx, key)
	if err != nil {
		s.logger.Warn("read catalog cache", zap.String("key", key), zap.Error(err))
		return webstorage.CacheEntry{}, false
	}
	if !ok || len(entry.Payload) == 0 {
		return webstorage.CacheEntry{}, false
	}
	if err := json.Unmarshal(entry.Payload, out); err != nil {
		s.logger.Warn("decode catalog cache", zap.String("key", key), zap.Error(err))
		return webstorage.CacheEntry{}, false
	}
	return entry, true
}

func (s *Service) save(ctx context.Context, key string, value any) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("encode catalog cache", zap.String("key", key), zap.Error(err))
		return
	}
	now := s.now().UTC()
	if err := s.store.PutCacheEntry(ctx, webstorage.CacheEntry{
		Key:         key,
		Scope:       scopeCatalog,
		Payload:     payload,
		RefreshedAt: now,
		ExpiresAt:   now.Add(s.ttl),
	}); err != nil {
		s.logger.Warn("write catalog cache", zap.String("key", key), zap.Error(err))
	}
}
