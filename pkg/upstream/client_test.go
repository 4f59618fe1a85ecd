package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrimart/storefront/pkg/circuit"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/paging"
	"go.uber.org/zap"
)

type product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{BaseURL: srv.URL + "/api", Logger: zap.NewNop()}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Pool().Close)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "not a url"}); err == nil {
		t.Error("Expected error for base URL without scheme and host")
	}
}

func TestGetPage_BuildsQuery(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}, nil)

	filters := paging.FilterSet{"category": "Vegetables", "search": "  ", "district": paging.AllSentinel}
	if _, err := c.GetPage(context.Background(), "/products", paging.Cursor{Index: 2, Size: 12}, filters); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/api/products" {
		t.Errorf("Expected /api/products, got %s", gotPath)
	}
	if gotQuery != "category=Vegetables&page=2&size=12" {
		t.Errorf("Unexpected query %q", gotQuery)
	}
}

func TestGetPage_SendsBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}, func(o *Options) { o.Token = StaticToken("abc") })

	if _, err := c.GetPage(context.Background(), "products", paging.FirstPage(12), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if auth != "Bearer abc" {
		t.Errorf("Expected bearer header, got %q", auth)
	}
}

func TestGetPage_ResponseError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Invalid category"}`, "Invalid category"},
		{"error field fallback", http.StatusNotFound, `{"error":"Not Found"}`, "Not Found"},
		{"no json body", http.StatusInternalServerError, `oops`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := c.GetPage(context.Background(), "products", paging.FirstPage(12), nil)
			var respErr *ResponseError
			if !errors.As(err, &respErr) {
				t.Fatalf("Expected *ResponseError, got %T %v", err, err)
			}
			if respErr.Status != tt.status || respErr.Message != tt.wantMessage {
				t.Errorf("Unexpected error %+v", respErr)
			}
			var resp errmsg.Response
			if !errors.As(err, &resp) {
				t.Error("Expected ResponseError to satisfy errmsg.Response")
			}
		})
	}
}

func TestGetPage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Pool().Close()

	_, err = c.GetPage(context.Background(), "products", paging.FirstPage(12), nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError, got %T %v", err, err)
	}
	if got := errmsg.Resolve(err, errmsg.English, ""); got != errmsg.Message(errmsg.English, errmsg.KeyNetwork) {
		t.Errorf("Expected network message, got %q", got)
	}
}

func TestGetPage_NoRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, _ = c.GetPage(context.Background(), "products", paging.FirstPage(12), nil)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", got)
	}
}

func TestGetPage_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/api/articles" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}, func(o *Options) {
		o.Breaker = circuit.Config{Threshold: 2, Cooldown: time.Hour}
	})

	ctx := context.Background()
	if err := c.Health(ctx); err != nil {
		t.Fatalf("Expected healthy client before any call, got %v", err)
	}
	for i := 0; i < 2; i++ {
		_, _ = c.GetPage(ctx, "products", paging.FirstPage(12), nil)
	}
	_, err := c.GetPage(ctx, "products", paging.FirstPage(12), nil)
	if !errors.Is(err, circuit.ErrCircuitOpen) {
		t.Fatalf("Expected open circuit, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected the open circuit to short-circuit the call")
	}
	if err := c.Health(ctx); err == nil {
		t.Error("Expected health to report the open circuit")
	}

	for i := 0; i < 3; i++ {
		_, err = c.GetPage(ctx, "articles", paging.FirstPage(12), nil)
	}
	if errors.Is(err, circuit.ErrCircuitOpen) {
		t.Error("Expected 4xx responses not to open the circuit")
	}
}

func TestGetPage_UnauthorizedHook(t *testing.T) {
	var fired int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}, func(o *Options) {
		o.Token = StaticToken("stale")
		o.OnUnauthorized = func() { atomic.AddInt32(&fired, 1) }
	})

	_, err := c.GetPage(context.Background(), "products", paging.FirstPage(12), nil)
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %v", err)
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Error("Expected OnUnauthorized to fire once")
	}
}

func TestCollection_DecodesPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"id":1,"name":"Tomato"},{"id":2,"name":"Potato"}],"totalPages":3,"totalElements":6,"number":0,"size":2}`))
	}, nil)

	src := Collection[product](c, "products")
	p, err := src.FetchPage(context.Background(), paging.FirstPage(2), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.Items) != 2 || p.Items[0].Name != "Tomato" || p.TotalPages != 3 {
		t.Errorf("Unexpected page %+v", p)
	}
	if !p.HasMore(0) {
		t.Error("Expected more pages after index 0")
	}
}

func TestCollection_NonJSONBodyIsEmptyPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>maintenance</html>`))
	}, nil)

	src := Collection[product](c, "products")
	p, err := src.FetchPage(context.Background(), paging.FirstPage(2), nil)
	if err != nil {
		t.Fatalf("Expected no error for a 200 response, got %v (resolved as %q)",
			err, errmsg.Resolve(err, errmsg.English, "fallback"))
	}
	if len(p.Items) != 0 || p.HasMore(0) {
		t.Errorf("Expected an empty last page, got %+v", p)
	}
}

func TestIsFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"client error", &ResponseError{Status: 404}, false},
		{"server error", &ResponseError{Status: 503}, true},
		{"network", &NetworkError{Op: "GET", Err: errors.New("refused")}, true},
		{"canceled", &NetworkError{Op: "GET", Err: context.Canceled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFailure(tt.err); got != tt.want {
				t.Errorf("IsFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
