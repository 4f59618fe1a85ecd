package service

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/pkg/cache"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/paging"
	"go.uber.org/zap"
)

// maxCachedBody skips caching pages larger than this.
const maxCachedBody = 1 << 20

type CacheService struct {
	store cache.PageCache
}

func NewCacheService(store cache.PageCache) *CacheService {
	if store == nil {
		store = cache.Noop{}
	}
	return &CacheService{store: store}
}

// ResourcePrefix is the key prefix shared by every page of a resource.
func ResourcePrefix(resource string) string {
	return constants.CacheKeyPage + resource + ":"
}

// GenerateCacheKey hashes the normalized outgoing query so that filter
// order and unset filters do not produce distinct entries.
func GenerateCacheKey(resource string, cursor paging.Cursor, filters paging.FilterSet) string {
	query := filters.Values(cursor).Encode()
	return fmt.Sprintf("%s%x", ResourcePrefix(resource), md5.Sum([]byte(query)))
}

// GetCachedPage returns a cached body. Cache faults are logged and treated
// as a miss.
func (s *CacheService) GetCachedPage(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to get cached page",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if ok {
		logger.FromContext(ctx).Debug("Cache hit",
			zap.String("cache_key", key),
			zap.Int("data_size", len(data)),
		)
	}
	return data, ok
}

// SetCachedPage stores body for ttl unless the page is too large.
func (s *CacheService) SetCachedPage(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if len(body) > maxCachedBody {
		logger.FromContext(ctx).Debug("Skipping cache for large response",
			zap.String("cache_key", key),
			zap.Int("data_size", len(body)),
		)
		return
	}
	if err := s.store.Set(ctx, key, body, ttl); err != nil {
		logger.FromContext(ctx).Error("Failed to set cached page",
			zap.String("cache_key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
		return
	}
	logger.FromContext(ctx).Debug("Page cached",
		zap.String("cache_key", key),
		zap.Int("data_size", len(body)),
		zap.Duration("ttl", ttl),
	)
}

// InvalidateResource removes every cached page of resource.
func (s *CacheService) InvalidateResource(ctx context.Context, resource string) (int, error) {
	removed, err := s.store.DeletePrefix(ctx, ResourcePrefix(resource))
	if err != nil {
		return 0, fmt.Errorf("invalidate %s: %w", resource, err)
	}
	logger.FromContext(ctx).Info("Cache invalidated",
		zap.String("resource", resource),
		zap.Int("removed", removed),
	)
	return removed, nil
}
