package pool

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestPool_ClientIsSharedPerHost(t *testing.T) {
	p := New(DefaultConfig(), zap.NewNop())

	a := p.Client("http://api.example.com/api/products")
	b := p.Client("http://api.example.com/api/market-prices")
	if a == nil || a != b {
		t.Fatal("Expected one client per host")
	}

	c := p.Client("https://cms.example.com/articles")
	if c == a {
		t.Error("Expected a distinct client for another host")
	}
	if p.Len() != 2 {
		t.Errorf("Expected 2 clients, got %d", p.Len())
	}
}

func TestPool_HealthTracking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnhealthyAfter = 2
	p := New(cfg, nil)

	base := "http://api.example.com"
	if !p.IsHealthy(base) {
		t.Fatal("Expected untracked backend to be healthy")
	}
	p.Client(base)

	p.RecordFailure(base, errors.New("connection refused"))
	if !p.IsHealthy(base) {
		t.Fatal("Expected backend to stay healthy after one failure")
	}
	p.RecordFailure(base+"/api/products", errors.New("connection refused"))
	if p.IsHealthy(base) {
		t.Fatal("Expected backend to be unhealthy after two consecutive failures")
	}

	stats := p.HealthStats()[base]
	if stats.FailureCount != 2 || stats.LastError != "connection refused" {
		t.Errorf("Unexpected stats %+v", stats)
	}

	p.RecordSuccess(base)
	if !p.IsHealthy(base) {
		t.Error("Expected backend to recover after a success")
	}
	if got := p.HealthStats()[base].ConsecutiveFailures; got != 0 {
		t.Errorf("Expected consecutive failures reset, got %d", got)
	}
}

func TestPool_Close(t *testing.T) {
	p := New(DefaultConfig(), nil)
	p.Client("http://one.example.com")
	p.Client("http://two.example.com")

	p.Close()
	if p.Len() != 0 {
		t.Errorf("Expected 0 clients after close, got %d", p.Len())
	}
}

func TestPool_ConcurrentAccess(t *testing.T) {
	p := New(DefaultConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			base := "http://concurrent.example.com"
			p.Client(base)
			p.RecordSuccess(base)
			p.IsHealthy(base)
		}()
	}
	wg.Wait()

	if p.Len() != 1 {
		t.Errorf("Expected 1 client, got %d", p.Len())
	}
}

func TestHostKey(t *testing.T) {
	tests := map[string]string{
		"http://api.example.com/api/products?x=1": "http://api.example.com",
		"https://api.example.com:8443":            "https://api.example.com:8443",
		"not a url":                               "not a url",
	}
	for in, want := range tests {
		if got := HostKey(in); got != want {
			t.Errorf("HostKey(%q): expected %q, got %q", in, want, got)
		}
	}
}
