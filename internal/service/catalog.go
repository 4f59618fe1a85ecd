package service

import (
	"context"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	apperrors "github.com/agrimart/storefront/internal/errors"
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/internal/repository"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/paging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PageGetter fetches raw collection pages from the marketplace API.
type PageGetter interface {
	GetPage(ctx context.Context, path string, cursor paging.Cursor, filters paging.FilterSet) ([]byte, error)
}

type CatalogConfig struct {
	DefaultTTL      time.Duration
	UpstreamTimeout time.Duration
}

// ListResult is one page of a catalog resource.
type ListResult struct {
	Resource string
	Page     paging.Page[model.Item]
	Cursor   paging.Cursor
	Filters  paging.FilterSet
	HasMore  bool
	CacheHit bool
}

type CatalogService struct {
	endpoints repository.EndpointStore
	upstream  PageGetter
	cache     *CacheService
	cfg       CatalogConfig
	group     singleflight.Group
}

func NewCatalogService(endpoints repository.EndpointStore, upstream PageGetter, cache *CacheService, cfg CatalogConfig) *CatalogService {
	if cache == nil {
		cache = NewCacheService(nil)
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 15 * time.Second
	}
	return &CatalogService{
		endpoints: endpoints,
		upstream:  upstream,
		cache:     cache,
		cfg:       cfg,
	}
}

// Resources lists the active catalog resources.
func (s *CatalogService) Resources(ctx context.Context) ([]model.ResourceEndpoint, error) {
	return s.endpoints.ListActive(ctx)
}

// ListPage returns page cursor.Index of resource under filters. Filters the
// resource does not allow are dropped. Identical concurrent requests share
// one upstream call.
func (s *CatalogService) ListPage(ctx context.Context, resource string, cursor paging.Cursor, filters paging.FilterSet) (*ListResult, error) {
	endpoint, err := s.endpoints.GetBySlug(ctx, resource)
	if err != nil {
		return nil, err
	}

	if cursor.Index < 0 {
		return nil, apperrors.ErrInvalidRequest
	}
	if cursor.Size <= 0 {
		cursor.Size = endpoint.DefaultSize
		if cursor.Size <= 0 {
			cursor.Size = paging.DefaultPageSize
		}
	}
	if cursor.Size > constants.MaxSize {
		cursor.Size = constants.MaxSize
	}
	filters = allowedFilters(ctx, endpoint, filters)

	log := logger.FromContext(ctx).With(
		zap.String("resource", resource),
		zap.Int("page", cursor.Index),
		zap.Int("size", cursor.Size),
	)

	key := GenerateCacheKey(resource, cursor, filters)
	if endpoint.CacheEnabled {
		if body, ok := s.cache.GetCachedPage(ctx, key); ok {
			if page, err := paging.DecodePage[model.Item](body); err == nil {
				return newListResult(resource, page, cursor, filters, true), nil
			}
			log.Warn("Discarding undecodable cached page", zap.String("cache_key", key))
		}
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		// detached so one caller leaving does not fail the others
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UpstreamTimeout)
		defer cancel()
		return s.fetch(callCtx, endpoint, key, cursor, filters)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			log.Warn("Catalog page fetch failed", zap.Error(res.Err), zap.Bool("shared", res.Shared))
			return nil, res.Err
		}
		page := res.Val.(paging.Page[model.Item])
		return newListResult(resource, page, cursor, filters, false), nil
	}
}

func (s *CatalogService) fetch(ctx context.Context, endpoint *model.ResourceEndpoint, key string, cursor paging.Cursor, filters paging.FilterSet) (paging.Page[model.Item], error) {
	body, err := s.upstream.GetPage(ctx, endpoint.UpstreamPath, cursor, filters)
	if err != nil {
		return paging.Page[model.Item]{}, apperrors.UpstreamError(err)
	}

	page, err := paging.DecodePage[model.Item](body)
	if err != nil {
		return paging.Page[model.Item]{}, apperrors.UpstreamError(err)
	}

	if endpoint.CacheEnabled {
		s.cache.SetCachedPage(ctx, key, body, endpoint.TTL(s.cfg.DefaultTTL))
	}
	return page, nil
}

// Invalidate drops every cached page of resource.
func (s *CatalogService) Invalidate(ctx context.Context, resource string) (int, error) {
	if _, err := s.endpoints.GetBySlug(ctx, resource); err != nil {
		return 0, err
	}
	return s.cache.InvalidateResource(ctx, resource)
}

func allowedFilters(ctx context.Context, endpoint *model.ResourceEndpoint, filters paging.FilterSet) paging.FilterSet {
	out := paging.FilterSet{}
	for k, v := range filters.Normalize() {
		if !endpoint.AllowsFilter(k) {
			logger.FromContext(ctx).Debug("Dropping filter not allowed for resource",
				zap.String("resource", endpoint.Slug),
				zap.String("filter", k),
			)
			continue
		}
		out[k] = v
	}
	return out
}

func newListResult(resource string, page paging.Page[model.Item], cursor paging.Cursor, filters paging.FilterSet, hit bool) *ListResult {
	if page.Items == nil {
		page.Items = []model.Item{}
	}
	return &ListResult{
		Resource: resource,
		Page:     page,
		Cursor:   cursor,
		Filters:  filters,
		HasMore:  page.HasMore(cursor.Index),
		CacheHit: hit,
	}
}
