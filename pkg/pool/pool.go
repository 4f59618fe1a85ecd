package pool

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config defines the upstream transport settings.
type Config struct {
	ConnectionTimeout   time.Duration `json:"connection_timeout"`
	RequestTimeout      time.Duration `json:"request_timeout"`
	IdleTimeout         time.Duration `json:"idle_timeout"`
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	// UnhealthyAfter is the number of consecutive failures after which a
	// backend is reported unhealthy.
	UnhealthyAfter int `json:"unhealthy_after"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ConnectionTimeout:   5 * time.Second,
		RequestTimeout:      15 * time.Second,
		IdleTimeout:         90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		UnhealthyAfter:      3,
	}
}

// BackendHealth tracks backend health status
type BackendHealth struct {
	Address             string    `json:"address"`
	IsHealthy           bool      `json:"is_healthy"`
	LastCheck           time.Time `json:"last_check"`
	LastError           string    `json:"last_error,omitempty"`
	FailureCount        int       `json:"failure_count"`
	SuccessCount        int       `json:"success_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Pool keeps one keep-alive HTTP client per upstream host.
type Pool struct {
	mu      sync.RWMutex
	clients map[string]*http.Client
	health  map[string]*BackendHealth
	cfg     Config
	logger  *zap.Logger
}

// New creates an empty pool.
func New(cfg Config, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UnhealthyAfter <= 0 {
		cfg.UnhealthyAfter = DefaultConfig().UnhealthyAfter
	}
	return &Pool{
		clients: make(map[string]*http.Client),
		health:  make(map[string]*BackendHealth),
		cfg:     cfg,
		logger:  logger,
	}
}

// HostKey reduces a base URL to the scheme://host key used by the pool.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// Client returns the HTTP client for baseURL's host.
func (p *Pool) Client(baseURL string) *http.Client {
	address := HostKey(baseURL)

	p.mu.RLock()
	client, exists := p.clients[address]
	p.mu.RUnlock()
	if exists {
		return client
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, exists = p.clients[address]; exists {
		return client
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   p.cfg.ConnectionTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          p.cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   p.cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       p.cfg.IdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	client = &http.Client{
		Transport: transport,
		Timeout:   p.cfg.RequestTimeout,
	}
	p.clients[address] = client
	p.health[address] = &BackendHealth{
		Address:   address,
		IsHealthy: true,
		LastCheck: time.Now(),
	}

	p.logger.Info("Created upstream HTTP client",
		zap.String("address", address),
		zap.Duration("request_timeout", p.cfg.RequestTimeout),
	)

	return client
}

// RecordSuccess records a successful request to a backend
func (p *Pool) RecordSuccess(baseURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.health[HostKey(baseURL)]; ok {
		h.IsHealthy = true
		h.SuccessCount++
		h.ConsecutiveFailures = 0
		h.LastCheck = time.Now()
		h.LastError = ""
	}
}

// RecordFailure records a failed request to a backend
func (p *Pool) RecordFailure(baseURL string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.health[HostKey(baseURL)]
	if !ok {
		return
	}
	h.FailureCount++
	h.ConsecutiveFailures++
	h.LastCheck = time.Now()
	if err != nil {
		h.LastError = err.Error()
	}
	if h.IsHealthy && h.ConsecutiveFailures >= p.cfg.UnhealthyAfter {
		h.IsHealthy = false
		p.logger.Warn("Upstream marked unhealthy",
			zap.String("address", h.Address),
			zap.Int("consecutive_failures", h.ConsecutiveFailures),
			zap.String("last_error", h.LastError),
		)
	}
}

// IsHealthy reports the backend state. Untracked backends count as healthy.
func (p *Pool) IsHealthy(baseURL string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if h, ok := p.health[HostKey(baseURL)]; ok {
		return h.IsHealthy
	}
	return true
}

// HealthStats returns copies of all tracked backends.
func (p *Pool) HealthStats() map[string]BackendHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]BackendHealth, len(p.health))
	for addr, h := range p.health {
		stats[addr] = *h
	}
	return stats
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// Close drops idle connections of every pooled client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for addr, client := range p.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		delete(p.clients, addr)
	}
	p.logger.Info("Closed upstream connections")
}
