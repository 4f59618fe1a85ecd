package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/dto"
	"github.com/agrimart/storefront/internal/middleware"
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/internal/repository"
	"github.com/agrimart/storefront/internal/service"
	"github.com/agrimart/storefront/pkg/cache"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/health"
	"github.com/agrimart/storefront/pkg/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine *gin.Engine

	mu      sync.Mutex
	queries []url.Values
}

func (e *testEnv) upstreamCalls() []url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]url.Values(nil), e.queries...)
}

// newTestEnv wires the catalog handler to a fake marketplace served by
// backend.
func newTestEnv(t *testing.T, backend http.HandlerFunc) *testEnv {
	t.Helper()
	env := &testEnv{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.queries = append(env.queries, r.URL.Query())
		env.mu.Unlock()
		backend(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := upstream.New(upstream.Options{BaseURL: srv.URL, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("Failed to create upstream client: %v", err)
	}

	mem := cache.NewMemory(time.Hour)
	t.Cleanup(mem.Close)

	endpoints := repository.NewStaticEndpoints([]model.ResourceEndpoint{
		{
			Slug:           "products",
			Name:           "Products",
			UpstreamPath:   "/api/products",
			DefaultSize:    12,
			AllowedFilters: model.FilterList("search", "category"),
			CacheEnabled:   true,
			IsActive:       true,
		},
	})
	catalog := service.NewCatalogService(endpoints, client, service.NewCacheService(mem), service.CatalogConfig{DefaultTTL: time.Minute})
	h := NewCatalogHandler(catalog)

	engine := gin.New()
	engine.Use(middleware.ContextMiddleware())
	engine.Use(middleware.LanguageMiddleware(errmsg.English))
	engine.GET("/catalog", h.ListResources)
	engine.GET("/catalog/:resource",
		middleware.NewValidationMiddleware().ValidateQuery(func() interface{} { return &dto.ListQuery{} }),
		h.ListPage,
	)
	engine.DELETE("/cache/:resource", h.InvalidateCache)
	env.engine = engine
	return env
}

func (e *testEnv) do(method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
	return out
}

const productsPage = `{"content":[{"id":"p1","name":"Tomato","category":"vegetables","price":"80.00"}],"totalPages":3,"totalElements":25}`

func TestListPage_Success(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productsPage))
	})

	w := env.do(http.MethodGet, "/catalog/products?page=1&category=vegetables&color=red", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(constants.HeaderXCache); got != constants.CacheMiss {
		t.Errorf("Expected cache MISS, got %q", got)
	}

	resp := decode[dto.PageResponse](t, w)
	if resp.Page != 1 || resp.Size != 12 || !resp.HasMore || len(resp.Content) != 1 {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.Content[0].Name != "Tomato" {
		t.Errorf("Expected Tomato, got %q", resp.Content[0].Name)
	}

	q := env.upstreamCalls()[0]
	if q.Get("category") != "vegetables" || q.Get("page") != "1" || q.Get("size") != "12" {
		t.Errorf("Unexpected upstream query %v", q)
	}
	if q.Has("color") {
		t.Error("Expected filter outside the allow-list to be dropped")
	}

	w = env.do(http.MethodGet, "/catalog/products?category=vegetables&page=1", nil)
	if got := w.Header().Get(constants.HeaderXCache); got != constants.CacheHit {
		t.Errorf("Expected cache HIT on repeat, got %q", got)
	}
	if len(env.upstreamCalls()) != 1 {
		t.Errorf("Expected one upstream call, got %d", len(env.upstreamCalls()))
	}
}

func TestListPage_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		target      string
		headers     map[string]string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "backend message wins",
			status:      http.StatusBadRequest,
			body:        `{"message":"Category does not exist"}`,
			target:      "/catalog/products",
			wantStatus:  http.StatusBadRequest,
			wantCode:    constants.CodeUpstreamError,
			wantMessage: "Category does not exist",
		},
		{
			name:        "status message in nepali",
			status:      http.StatusForbidden,
			target:      "/catalog/products?lang=ne",
			wantStatus:  http.StatusForbidden,
			wantCode:    constants.CodeUpstreamError,
			wantMessage: errmsg.Message(errmsg.Nepali, errmsg.KeyForbidden),
		},
		{
			name:        "accept-language header",
			status:      http.StatusInternalServerError,
			target:      "/catalog/products",
			headers:     map[string]string{constants.HeaderAcceptLanguage: "ne-NP"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    constants.CodeUpstreamError,
			wantMessage: errmsg.Message(errmsg.Nepali, errmsg.KeyServerError),
		},
		{
			name:        "unmapped status falls back",
			status:      http.StatusTeapot,
			target:      "/catalog/products",
			wantStatus:  http.StatusTeapot,
			wantCode:    constants.CodeUpstreamError,
			wantMessage: errmsg.Message(errmsg.English, errmsg.KeyGeneric),
		},
		{
			name:        "unknown resource",
			status:      http.StatusOK,
			target:      "/catalog/orders",
			wantStatus:  http.StatusNotFound,
			wantCode:    constants.CodeResourceNotFound,
			wantMessage: errmsg.Message(errmsg.English, errmsg.KeyNotFound),
		},
		{
			name:        "invalid slug",
			status:      http.StatusOK,
			target:      "/catalog/Products!",
			wantStatus:  http.StatusNotFound,
			wantCode:    constants.CodeResourceNotFound,
			wantMessage: errmsg.Message(errmsg.English, errmsg.KeyNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			w := env.do(http.MethodGet, tt.target, tt.headers)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			body := decode[dto.ErrorResponse](t, w)
			if body.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, body.Code)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body.Message)
			}
		})
	}
}

func TestListPage_NetworkFailure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("Expected hijackable response writer")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
			return
		}
		_ = conn.Close()
	})

	w := env.do(http.MethodGet, "/catalog/products?lang=ne", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", w.Code)
	}
	body := decode[dto.ErrorResponse](t, w)
	if body.Code != constants.CodeUpstreamUnavailable {
		t.Errorf("Expected %s, got %s", constants.CodeUpstreamUnavailable, body.Code)
	}
	if body.Message != errmsg.Message(errmsg.Nepali, errmsg.KeyNetwork) {
		t.Errorf("Expected Nepali network message, got %q", body.Message)
	}
}

func TestListPage_FilterTooLong(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream must not be called")
	})

	long := make([]byte, constants.MaxFilterValueLength+1)
	for i := range long {
		long[i] = 'a'
	}
	w := env.do(http.MethodGet, "/catalog/products?brand="+string(long), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if body := decode[dto.ErrorResponse](t, w); body.Code != constants.CodeInvalidFilter {
		t.Errorf("Expected %s, got %s", constants.CodeInvalidFilter, body.Code)
	}
}

func TestListResources(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	w := env.do(http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode[struct {
		Resources []dto.ResourceResponse `json:"resources"`
	}](t, w)
	if len(resp.Resources) != 1 || resp.Resources[0].Slug != "products" {
		t.Fatalf("Unexpected resources %+v", resp.Resources)
	}
	if got := resp.Resources[0].AllowedFilters; len(got) != 2 {
		t.Errorf("Expected two allowed filters, got %v", got)
	}
}

func TestInvalidateCache(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productsPage))
	})

	env.do(http.MethodGet, "/catalog/products", nil)
	env.do(http.MethodGet, "/catalog/products?page=2", nil)

	w := env.do(http.MethodDelete, "/cache/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp := decode[dto.InvalidateResponse](t, w); resp.Removed != 2 {
		t.Errorf("Expected 2 removed pages, got %d", resp.Removed)
	}

	env.do(http.MethodGet, "/catalog/products", nil)
	if len(env.upstreamCalls()) != 3 {
		t.Errorf("Expected refetch after invalidation, got %d upstream calls", len(env.upstreamCalls()))
	}

	if w := env.do(http.MethodDelete, "/cache/orders", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown resource, got %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	monitor := health.NewMonitor(0, zap.NewNop())
	monitor.Register("database", &health.FuncChecker{}, true)
	monitor.Register("redis", &health.FuncChecker{Ping: func(context.Context) error { return context.DeadlineExceeded }}, false)

	engine := gin.New()
	h := NewHealthHandler(monitor, "test")
	engine.GET("/health", h.HealthCheck)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 when only optional checks fail, got %d", w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.Status != health.StatusDegraded.String() {
		t.Errorf("Expected %s, got %s", health.StatusDegraded, resp.Status)
	}
	if len(resp.Checks) != 2 || resp.Checks[0].Name != "database" || resp.Checks[0].Status != health.StatusDisabled.String() {
		t.Errorf("Unexpected checks %+v", resp.Checks)
	}

	monitor.Register("upstream", &health.FuncChecker{Ping: func(context.Context) error { return context.Canceled }}, true)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when a critical check fails, got %d", w.Code)
	}
}
