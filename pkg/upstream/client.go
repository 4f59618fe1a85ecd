package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agrimart/storefront/pkg/circuit"
	"github.com/agrimart/storefront/pkg/paging"
	"github.com/agrimart/storefront/pkg/pool"
	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

// TokenSource supplies the bearer token attached to upstream calls.
type TokenSource interface {
	// Token returns the current token and whether one is available.
	Token() (string, bool)
}

// StaticToken is a fixed bearer token. An empty value sends no header.
type StaticToken string

func (s StaticToken) Token() (string, bool) { return string(s), s != "" }

type Options struct {
	BaseURL   string
	UserAgent string
	Token     TokenSource
	Pool      *pool.Pool
	Breaker   circuit.Config
	Logger    *zap.Logger

	// OnUnauthorized runs after a 401 on a request that carried a token.
	OnUnauthorized func()
}

// Client calls the marketplace collection endpoints.
type Client struct {
	baseURL        *url.URL
	userAgent      string
	token          TokenSource
	pool           *pool.Pool
	breakers       *circuit.Registry
	logger         *zap.Logger
	onUnauthorized func()
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid upstream base URL %q", opts.BaseURL)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := opts.Pool
	if p == nil {
		p = pool.New(pool.DefaultConfig(), logger)
	}
	bc := opts.Breaker
	if bc.IsFailure == nil {
		bc.IsFailure = IsFailure
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "agrimart-storefront/1.0"
	}

	return &Client{
		baseURL:        base,
		userAgent:      ua,
		token:          opts.Token,
		pool:           p,
		breakers:       circuit.NewRegistry(bc, logger),
		logger:         logger.With(zap.String("component", "upstream")),
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Breakers exposes the per-endpoint circuit breakers for health reporting.
func (c *Client) Breakers() *circuit.Registry { return c.breakers }

// Pool returns the transport pool.
func (c *Client) Pool() *pool.Pool { return c.pool }

// GetPage fetches one page of the collection at path:
// GET <path>?<filters>&page=<n>&size=<m>. The raw body is returned for
// 2xx responses. There is no automatic retry.
func (c *Client) GetPage(ctx context.Context, path string, cursor paging.Cursor, filters paging.FilterSet) ([]byte, error) {
	return c.Get(ctx, path, filters.Values(cursor))
}

// Get performs a GET against path with the given query.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.resolve(path, query)
	breaker := c.breakers.For(path)

	if err := breaker.Allow(); err != nil {
		c.logger.Warn("Circuit rejected upstream call",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &NetworkError{Op: http.MethodGet, URL: endpoint, Err: err}
	}

	body, err := c.do(ctx, endpoint)
	breaker.Record(err)
	return body, err
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Op: http.MethodGet, URL: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	authorized := false
	if c.token != nil {
		if token, ok := c.token.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			authorized = true
		}
	}

	start := time.Now()
	resp, err := c.pool.Client(c.baseURL.String()).Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.pool.RecordFailure(c.baseURL.String(), err)
			c.logger.Error("HTTP request failed",
				zap.String("url", endpoint),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
		}
		return nil, &NetworkError{Op: http.MethodGet, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.pool.RecordFailure(c.baseURL.String(), err)
		return nil, &NetworkError{Op: "read", URL: endpoint, Err: err}
	}

	c.logger.Debug("HTTP response received",
		zap.String("url", endpoint),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.Int("bytes", len(respData)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := newResponseError(http.MethodGet, endpoint, resp.StatusCode, respData)
		if resp.StatusCode >= http.StatusInternalServerError {
			c.pool.RecordFailure(c.baseURL.String(), respErr)
		} else {
			c.pool.RecordSuccess(c.baseURL.String())
		}
		c.logger.Warn("HTTP error response",
			zap.String("url", endpoint),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", respErr.Message),
		)
		if resp.StatusCode == http.StatusUnauthorized && authorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, respErr
	}

	c.pool.RecordSuccess(c.baseURL.String())
	return respData, nil
}

// Health reports an error while the upstream host is marked unhealthy or
// any endpoint circuit is open.
func (c *Client) Health(context.Context) error {
	if !c.pool.IsHealthy(c.baseURL.String()) {
		stats := c.pool.HealthStats()[pool.HostKey(c.baseURL.String())]
		return fmt.Errorf("upstream %s unhealthy after %d consecutive failures: %s",
			stats.Address, stats.ConsecutiveFailures, stats.LastError)
	}
	var open []string
	for _, s := range c.breakers.Snapshots() {
		if s.State == circuit.StateOpen.String() {
			open = append(open, s.Name)
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("circuit open for %s", strings.Join(open, ", "))
	}
	return nil
}
