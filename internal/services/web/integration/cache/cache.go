// Package cache opens the optional on-disk cache used by the catalog.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	webstorage "github.com/louisbranch/spabooking/internal/services/web/storage"
	websqlite "github.com/louisbranch/spabooking/internal/services/web/storage/sqlite"
)

// OpenStore opens the web cache store when a storage path is provided. An
// empty path returns a nil store and the catalog falls back to memory.
func OpenStore(ctx context.Context, path string) (webstorage.CacheStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create web cache dir: %w", err)
		}
	}
	store, err := websqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open web cache sqlite store: %w", err)
	}
	return store, nil
}
