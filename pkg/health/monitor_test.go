package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCheckNow_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		redisErr error
		want     Status
	}{
		{"all healthy", nil, nil, StatusHealthy},
		{"optional down", nil, errors.New("redis down"), StatusDegraded},
		{"critical down", errors.New("db down"), nil, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(0, zap.NewNop())
			m.Register("database", &FuncChecker{Ping: func(context.Context) error { return tt.dbErr }}, true)
			m.Register("redis", &FuncChecker{Ping: func(context.Context) error { return tt.redisErr }}, false)

			got, results := m.CheckNow(context.Background())
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if len(results) != 2 || results[0].Name != "database" {
				t.Errorf("Unexpected results %+v", results)
			}
		})
	}
}

func TestCheckNow_DisabledChecker(t *testing.T) {
	m := NewMonitor(0, nil)
	m.Register("redis", &FuncChecker{}, false)

	status, results := m.CheckNow(context.Background())
	if status != StatusHealthy || results[0].Status != StatusDisabled {
		t.Errorf("Expected disabled check not to affect health, got %s / %s", status, results[0].Status)
	}
}

func TestHTTPChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	tests := map[string]Status{"/ok": StatusHealthy, "/missing": StatusDegraded, "/boom": StatusUnhealthy}
	for path, want := range tests {
		c := &HTTPChecker{Address: srv.URL, Path: path, Client: srv.Client()}
		if got := c.Check(context.Background()).Status; got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestCheckNow_CountsFailures(t *testing.T) {
	m := NewMonitor(0, nil)
	m.Register("upstream", &FuncChecker{Ping: func(context.Context) error { return errors.New("refused") }}, true)

	m.CheckNow(context.Background())
	m.CheckNow(context.Background())

	r, ok := m.GetResult("upstream")
	if !ok || r.CheckCount != 2 || r.FailureCount != 2 {
		t.Errorf("Unexpected result %+v", r)
	}
}

func TestMonitor_StartStop(t *testing.T) {
	m := NewMonitor(5*time.Millisecond, nil)
	m.Register("db", &FuncChecker{Ping: func(context.Context) error { return nil }}, true)

	m.Start()
	m.Start()
	deadline := time.Now().Add(time.Second)
	for {
		if r, ok := m.GetResult("db"); ok && r.CheckCount >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected periodic checks to run")
		}
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	m.Stop()
}
