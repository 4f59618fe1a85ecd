package handler

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/dto"
	apperrors "github.com/agrimart/storefront/internal/errors"
	"github.com/agrimart/storefront/internal/middleware"
	"github.com/agrimart/storefront/internal/service"
	ctxutil "github.com/agrimart/storefront/pkg/context"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/paging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var resourcePattern = regexp.MustCompile(constants.ResourcePattern)

// query parameters that are never forwarded as filters
var reservedParams = map[string]bool{
	constants.QueryParamPage: true,
	constants.QueryParamSize: true,
	constants.QueryParamLang: true,
}

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListResources handles GET /catalog.
func (h *CatalogHandler) ListResources(c *gin.Context) {
	endpoints, err := h.catalog.Resources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.ResourceResponse, 0, len(endpoints))
	for _, e := range endpoints {
		filters := e.Filters()
		if filters == nil {
			filters = []string{}
		}
		out = append(out, dto.ResourceResponse{
			Slug:           e.Slug,
			Name:           e.Name,
			DefaultSize:    e.DefaultSize,
			AllowedFilters: filters,
			Description:    e.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"resources": out})
}

// ListPage handles GET /catalog/:resource. Query parameters other than
// page, size and lang are filters.
func (h *CatalogHandler) ListPage(c *gin.Context) {
	resource := c.Param("resource")
	if !resourcePattern.MatchString(resource) {
		respondError(c, apperrors.ErrResourceNotFound)
		return
	}

	query, ok := c.MustGet(middleware.GinKeyQuery).(*dto.ListQuery)
	if !ok {
		respondError(c, apperrors.ErrInternal)
		return
	}

	filters, err := filtersFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := ctxutil.WithResource(c.Request.Context(), resource)
	result, err := h.catalog.ListPage(ctx, resource, query.Cursor(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	cacheHeader := constants.CacheMiss
	if result.CacheHit {
		cacheHeader = constants.CacheHit
	}
	c.Header(constants.HeaderXCache, cacheHeader)

	c.JSON(http.StatusOK, dto.PageResponse{
		Resource:      result.Resource,
		Content:       result.Page.Items,
		Page:          result.Cursor.Index,
		Size:          result.Cursor.Size,
		TotalPages:    result.Page.TotalPages,
		TotalElements: result.Page.TotalElements,
		HasMore:       result.HasMore,
	})
}

// InvalidateCache handles DELETE /cache/:resource.
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	resource := c.Param("resource")
	if !resourcePattern.MatchString(resource) {
		respondError(c, apperrors.ErrResourceNotFound)
		return
	}

	removed, err := h.catalog.Invalidate(c.Request.Context(), resource)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("Cache invalidated",
		zap.String("resource", resource),
		zap.Int("removed", removed),
	)

	c.JSON(http.StatusOK, dto.InvalidateResponse{
		Resource: resource,
		Removed:  removed,
		Message:  constants.MsgCacheInvalidated,
	})
}

func filtersFromQuery(c *gin.Context) (paging.FilterSet, error) {
	filters := paging.FilterSet{}
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		value := values[len(values)-1]
		if len(value) > constants.MaxFilterValueLength {
			return nil, apperrors.WrapError(apperrors.ErrInvalidFilter,
				fmt.Errorf("filter %q exceeds %d characters", key, constants.MaxFilterValueLength))
		}
		filters[key] = value
	}
	if len(filters) > constants.MaxFilterCount {
		return nil, apperrors.ErrInvalidFilter
	}
	return filters.Normalize(), nil
}
