package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of the ledger.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	Checks    []Check       `json:"checks,omitempty"`
}

// Check represents an individual health check result.
type Check struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency,omitempty"`
}

// HealthCheckFunc reports a failing dependency as an error.
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker runs named checks on demand.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
}

// NewHealthChecker creates a checker with no checks registered.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
	}
}

// RegisterCheck adds or replaces a named check.
func (h *HealthChecker) RegisterCheck(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// AccountsProvider is the part of an account store the health check uses.
type AccountsProvider interface {
	GetAccountsCount() uint64
}

// RegisterAccountsCheck registers a check that reads the account count
// from db and publishes it to m.
func (h *HealthChecker) RegisterAccountsCheck(db AccountsProvider, m *Metrics) {
	h.RegisterCheck("accounts", func(context.Context) error {
		n := db.GetAccountsCount()
		if m != nil {
			m.SetAccounts(n)
		}
		return nil
	})
}

// Check runs every check in name order.
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	status := &HealthStatus{
		Healthy:   true,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime),
	}
	for _, name := range names {
		c, ok := h.CheckOne(ctx, name)
		if !ok {
			continue
		}
		status.Healthy = status.Healthy && c.Healthy
		status.Checks = append(status.Checks, *c)
	}
	return status
}

// CheckOne runs the named check. It reports false when no such check is
// registered.
func (h *HealthChecker) CheckOne(ctx context.Context, name string) (*Check, bool) {
	h.mu.RLock()
	fn, ok := h.checks[name]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}

	start := time.Now()
	err := fn(ctx)
	c := &Check{Name: name, Healthy: err == nil, Latency: time.Since(start)}
	if err != nil {
		c.Message = err.Error()
	}
	return c, true
}
