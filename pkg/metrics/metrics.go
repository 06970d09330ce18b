// Package metrics exposes Prometheus metrics for a Tether ledger.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/tether"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

const namespace = "tether"

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the ledger's collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	mu    sync.RWMutex
	names map[types.Pubkey]string

	Transactions        *prometheus.CounterVec
	Instructions        *prometheus.CounterVec
	ProgramErrors       *prometheus.CounterVec
	ComputeUnits        *prometheus.HistogramVec
	TransactionDuration prometheus.Histogram
	Accounts            prometheus.Gauge
}

// NewMetrics creates a Metrics instance with every collector registered,
// along with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		names:    make(map[types.Pubkey]string),

		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions processed, by result.",
		}, []string{"result"}),
		Instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Top-level instructions executed, by program and result.",
		}, []string{"program", "result"}),
		ProgramErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "program_errors_total",
			Help:      "Tether program failures, by custom error code.",
		}, []string{"code"}),
		ComputeUnits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_units",
			Help:      "Compute units consumed per top-level instruction.",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
		}, []string{"program"}),
		TransactionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Wall time spent verifying and executing a transaction.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts in the ledger.",
		}),
	}

	m.registry.MustRegister(
		m.Transactions,
		m.Instructions,
		m.ProgramErrors,
		m.ComputeUnits,
		m.TransactionDuration,
		m.Accounts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SetProgramName labels a program's series with name instead of its
// address.
func (m *Metrics) SetProgramName(id types.Pubkey, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
}

func (m *Metrics) programLabel(id types.Pubkey) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name, ok := m.names[id]; ok {
		return name
	}
	return id.String()
}

// InstructionProcessed records one top-level instruction.
func (m *Metrics) InstructionProcessed(programID types.Pubkey, computeUnits uint64, err error) {
	program := m.programLabel(programID)
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
		if code, ok := tether.ErrorCode(err); ok {
			m.ProgramErrors.WithLabelValues(strconv.FormatUint(uint64(code), 10)).Inc()
		}
	}
	m.Instructions.WithLabelValues(program, result).Inc()
	m.ComputeUnits.WithLabelValues(program).Observe(float64(computeUnits))
}

// TransactionProcessed records one transaction.
func (m *Metrics) TransactionProcessed(result *types.TransactionResult, elapsed time.Duration) {
	outcome := ResultSuccess
	if !result.Success {
		outcome = ResultFailure
	}
	m.Transactions.WithLabelValues(outcome).Inc()
	m.TransactionDuration.Observe(elapsed.Seconds())
}

// SetAccounts updates the account count gauge.
func (m *Metrics) SetAccounts(n uint64) {
	m.Accounts.Set(float64(n))
}
