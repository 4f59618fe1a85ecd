package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents health check status
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDegraded
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDegraded:
		return "degraded"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Critical     bool          `json:"critical"`
	Latency      time.Duration `json:"latency_ns"`
	LastCheck    time.Time     `json:"last_check"`
	Message      string        `json:"message,omitempty"`
	CheckCount   int           `json:"check_count"`
	FailureCount int           `json:"failure_count"`
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// HTTPChecker checks HTTP endpoint health
type HTTPChecker struct {
	Address string
	Path    string
	Client  *http.Client
}

// Check performs HTTP health check. Any response below 500 means the
// upstream is reachable; 4xx is reported as degraded.
func (c *HTTPChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{LastCheck: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Address+c.Path, nil)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		result.Latency = time.Since(start)
		return result
	}

	resp, err := c.Client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		return result
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Status = StatusHealthy
	case resp.StatusCode >= 500:
		result.Status = StatusUnhealthy
		result.Message = resp.Status
	default:
		result.Status = StatusDegraded
		result.Message = resp.Status
	}
	return result
}

// FuncChecker adapts a ping function. A nil Ping reports disabled.
type FuncChecker struct {
	Ping func(ctx context.Context) error
}

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if c.Ping == nil {
		return CheckResult{Status: StatusDisabled, LastCheck: start}
	}
	err := c.Ping(ctx)
	result := CheckResult{LastCheck: start, Latency: time.Since(start), Status: StatusHealthy}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

type registration struct {
	checker  Checker
	critical bool
}

// Monitor runs named health checks on demand or periodically.
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]registration
	results  map[string]*CheckResult
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewMonitor creates a new health monitor
func NewMonitor(interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checkers: make(map[string]registration),
		results:  make(map[string]*CheckResult),
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Register adds a named checker. A failing critical check makes the
// overall status unhealthy; a failing optional one only degrades it.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = registration{checker: checker, critical: critical}
	m.logger.Info("Registered health checker",
		zap.String("name", name),
		zap.Bool("critical", critical),
	)
}

// RegisterHTTPChecker registers an HTTP health checker
func (m *Monitor) RegisterHTTPChecker(name, address, path string, client *http.Client, critical bool) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	m.Register(name, &HTTPChecker{Address: address, Path: path, Client: client}, critical)
}

// CheckNow runs every checker concurrently and returns the results sorted
// by name together with the overall status.
func (m *Monitor) CheckNow(ctx context.Context) (Status, []CheckResult) {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	regs := make([]registration, 0, len(m.checkers))
	for name, reg := range m.checkers {
		names = append(names, name)
		regs = append(regs, reg)
	}
	m.mu.RUnlock()

	results := make([]CheckResult, len(regs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range regs {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, m.timeout)
			defer cancel()
			r := regs[i].checker.Check(cctx)
			r.Name = names[i]
			r.Critical = regs[i].critical
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	overall := StatusHealthy
	m.mu.Lock()
	for i := range results {
		r := &results[i]
		if prev, ok := m.results[r.Name]; ok {
			r.CheckCount = prev.CheckCount
			r.FailureCount = prev.FailureCount
		}
		r.CheckCount++
		if r.Status == StatusUnhealthy {
			r.FailureCount++
		}
		stored := *r
		m.results[r.Name] = &stored

		switch {
		case r.Status == StatusUnhealthy && r.Critical:
			overall = StatusUnhealthy
		case (r.Status == StatusUnhealthy || r.Status == StatusDegraded) && overall == StatusHealthy:
			overall = StatusDegraded
		}
		if r.Status == StatusUnhealthy || r.Status == StatusDegraded {
			m.logger.Warn("Health check failed",
				zap.String("name", r.Name),
				zap.String("status", r.Status.String()),
				zap.Duration("latency", r.Latency),
				zap.String("message", r.Message),
			)
		}
	}
	m.mu.Unlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return overall, results
}

// Start runs CheckNow every interval until Stop.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.cancel != nil || m.interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.CheckNow(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}

// Stop stops the health monitor and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		m.wg.Wait()
	}
}

// GetResult gets the last result for a checker.
func (m *Monitor) GetResult(name string) (CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, exists := m.results[name]
	if !exists {
		return CheckResult{}, false
	}
	return *result, true
}
