package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/dto"
	ctxutil "github.com/agrimart/storefront/pkg/context"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestContextMiddleware_RequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(ContextMiddleware())
	engine.GET("/", func(c *gin.Context) {
		if got := ctxutil.GetRequestID(c.Request.Context()); got != RequestID(c) {
			t.Errorf("Context request id %q differs from gin key %q", got, RequestID(c))
		}
		c.Status(http.StatusOK)
	})

	w := perform(engine, http.MethodGet, "/", nil)
	if len(w.Header().Get(constants.HeaderXRequestID)) != 36 {
		t.Errorf("Expected generated uuid, got %q", w.Header().Get(constants.HeaderXRequestID))
	}

	w = perform(engine, http.MethodGet, "/", map[string]string{constants.HeaderXRequestID: "req-42"})
	if got := w.Header().Get(constants.HeaderXRequestID); got != "req-42" {
		t.Errorf("Expected incoming id to be kept, got %q", got)
	}
}

func TestLanguageMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    errmsg.Language
	}{
		{"default", "/", nil, errmsg.English},
		{"query", "/?lang=ne", nil, errmsg.Nepali},
		{"header", "/", map[string]string{constants.HeaderAcceptLanguage: "ne-NP,en;q=0.8"}, errmsg.Nepali},
		{"query wins over header", "/?lang=en", map[string]string{constants.HeaderAcceptLanguage: "ne"}, errmsg.English},
		{"unknown falls back to english", "/?lang=fr", nil, errmsg.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(LanguageMiddleware(errmsg.English))
			engine.GET("/", func(c *gin.Context) {
				if got := LanguageFrom(c); got != tt.want {
					t.Errorf("Expected %s, got %s", tt.want, got)
				}
				if got := ctxutil.GetLanguage(c.Request.Context()); got != string(tt.want) {
					t.Errorf("Expected context language %s, got %s", tt.want, got)
				}
				c.Status(http.StatusOK)
			})

			w := perform(engine, http.MethodGet, tt.target, tt.headers)
			if got := w.Header().Get(constants.HeaderContentLang); got != string(tt.want) {
				t.Errorf("Expected Content-Language %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(LanguageMiddleware(errmsg.English))
	engine.Use(RateLimit(2, time.Minute))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := perform(engine, http.MethodGet, "/", nil); w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := perform(engine, http.MethodGet, "/?lang=ne", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Code != constants.CodeRateLimited {
		t.Errorf("Expected %s, got %s", constants.CodeRateLimited, body.Code)
	}
	if body.Message != errmsg.Message(errmsg.Nepali, errmsg.KeyTooManyRequests) {
		t.Errorf("Expected Nepali rate limit message, got %q", body.Message)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("Expected first request to pass")
	}
	if ok, _ := rl.Allow("10.0.0.1"); ok {
		t.Fatal("Expected second request to be limited")
	}
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Fatal("Expected other clients to be unaffected")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Error("Expected request to pass after the window slid")
	}
}

func TestValidateQuery(t *testing.T) {
	engine := gin.New()
	engine.Use(LanguageMiddleware(errmsg.English))
	engine.GET("/", NewValidationMiddleware().ValidateQuery(func() interface{} { return &dto.ListQuery{} }),
		func(c *gin.Context) {
			q := c.MustGet(GinKeyQuery).(*dto.ListQuery)
			c.JSON(http.StatusOK, gin.H{"page": q.Page, "size": q.Size})
		})

	t.Run("valid", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/?page=2&size=20&category=grains", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	tests := []struct {
		name   string
		target string
	}{
		{"size too large", "/?size=500"},
		{"negative page", "/?page=-1"},
		{"unknown language", "/?lang=fr"},
		{"not a number", "/?page=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(engine, http.MethodGet, tt.target, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", w.Code)
			}
			if body := decodeError(t, w); body.Code != constants.CodeInvalidRequest {
				t.Errorf("Expected %s, got %s", constants.CodeInvalidRequest, body.Code)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(LanguageMiddleware(errmsg.English))
	engine.Use(RecoveryMiddleware())
	engine.GET("/", func(c *gin.Context) { panic("boom") })

	w := perform(engine, http.MethodGet, "/?lang=ne", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Code != constants.CodeInternalError || body.Message != errmsg.Message(errmsg.Nepali, errmsg.KeyGeneric) {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestCORS_Preflight(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS())
	engine.OPTIONS("/", func(c *gin.Context) { t.Error("Handler must not run for preflight") })

	w := perform(engine, http.MethodOptions, "/", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestRequireAdmin(t *testing.T) {
	const secret = "test-secret"
	exp := time.Now().Add(time.Hour).Unix()

	engine := gin.New()
	engine.Use(NewAdminMiddleware(secret).RequireAdmin())
	engine.DELETE("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, secret, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signToken(t, secret, jwt.MapClaims{"role": "admin"}), http.StatusUnauthorized},
		{"not admin", "Bearer " + signToken(t, secret, jwt.MapClaims{"role": "farmer", "exp": exp}), http.StatusForbidden},
		{"admin", "Bearer " + signToken(t, secret, jwt.MapClaims{"role": "admin", "sub": "ops", "exp": exp}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[constants.HeaderAuthorization] = tt.header
			}
			if w := perform(engine, http.MethodDelete, "/", headers); w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
