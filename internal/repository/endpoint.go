package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	apperrors "github.com/agrimart/storefront/internal/errors"
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EndpointStore resolves catalog resources to upstream endpoints.
type EndpointStore interface {
	GetBySlug(ctx context.Context, slug string) (*model.ResourceEndpoint, error)
	ListActive(ctx context.Context) ([]model.ResourceEndpoint, error)
}

type EndpointRepository struct {
	db *gorm.DB
}

func NewEndpointRepository(db *gorm.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

func (r *EndpointRepository) GetBySlug(ctx context.Context, slug string) (*model.ResourceEndpoint, error) {
	if err := ctx.Err(); err != nil {
		logger.GetLogger().Warn("Repository: Context cancelled before getting endpoint",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return nil, err
	}

	start := time.Now()
	var res model.ResourceEndpoint
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&res).Error
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.GetLogger().Debug("Repository: Endpoint not found",
				zap.String("slug", slug),
				zap.Duration("query_duration", duration),
			)
			return nil, apperrors.WrapError(apperrors.ErrResourceNotFound, err)
		}
		logger.GetLogger().Error("Repository: Failed to get endpoint by slug",
			zap.String("slug", slug),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.GetLogger().Debug("Repository: Endpoint retrieved successfully",
		zap.String("slug", slug),
		zap.String("upstream_path", res.UpstreamPath),
		zap.Duration("query_duration", duration),
	)

	return &res, nil
}

func (r *EndpointRepository) ListActive(ctx context.Context) ([]model.ResourceEndpoint, error) {
	start := time.Now()
	var endpoints []model.ResourceEndpoint
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("slug").
		Find(&endpoints).Error

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to list endpoints",
			zap.Duration("query_duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	logger.GetLogger().Debug("Repository: Endpoints listed",
		zap.Int("count", len(endpoints)),
		zap.Duration("query_duration", time.Since(start)),
	)
	return endpoints, nil
}

// StaticEndpoints is an in-memory EndpointStore used when no database is
// configured.
type StaticEndpoints struct {
	mu     sync.RWMutex
	bySlug map[string]model.ResourceEndpoint
}

func NewStaticEndpoints(endpoints []model.ResourceEndpoint) *StaticEndpoints {
	s := &StaticEndpoints{bySlug: make(map[string]model.ResourceEndpoint, len(endpoints))}
	for _, e := range endpoints {
		s.bySlug[e.Slug] = e
	}
	return s
}

func (s *StaticEndpoints) GetBySlug(_ context.Context, slug string) (*model.ResourceEndpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.bySlug[slug]
	if !ok || !e.IsActive {
		return nil, apperrors.ErrResourceNotFound
	}
	return &e, nil
}

func (s *StaticEndpoints) ListActive(context.Context) ([]model.ResourceEndpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ResourceEndpoint, 0, len(s.bySlug))
	for _, e := range s.bySlug {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
