package provider

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aidash/server/internal/shared/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when an upstream's breaker rejects the call.
var ErrCircuitOpen = errors.New("upstream circuit open")

// HealthMonitorConfig contains breaker configuration.
type HealthMonitorConfig struct {
	FailureThreshold    uint32
	Timeout             time.Duration
	Interval            time.Duration
	MaxHalfOpenRequests uint32
}

// DefaultHealthMonitorConfig returns the default breaker configuration.
func DefaultHealthMonitorConfig() *HealthMonitorConfig {
	return &HealthMonitorConfig{
		FailureThreshold:    5,
		Timeout:             30 * time.Second,
		Interval:            60 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// HealthMonitor tracks one circuit breaker per upstream.
type HealthMonitor struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]

	config  *HealthMonitorConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHealthMonitor creates a new health monitor.
func NewHealthMonitor(config *HealthMonitorConfig, logger *zap.Logger, m *metrics.Metrics) *HealthMonitor {
	if config == nil {
		config = DefaultHealthMonitorConfig()
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultHealthMonitorConfig().FailureThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthMonitor{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		config:   config,
		logger:   logger,
		metrics:  m,
	}
}

// Execute runs fn under the named upstream's breaker. Context cancellation
// does not count as an upstream failure.
func (m *HealthMonitor) Execute(upstream string, fn func() error) error {
	breaker := m.getOrCreateBreaker(upstream)

	_, err := breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrCircuitOpen, err)
	}
	return err
}

// GetBreakerState returns the breaker state of an upstream.
func (m *HealthMonitor) GetBreakerState(upstream string) gobreaker.State {
	return m.getOrCreateBreaker(upstream).State()
}

// IsHealthy reports whether the upstream's breaker is closed.
func (m *HealthMonitor) IsHealthy(upstream string) bool {
	return m.GetBreakerState(upstream) == gobreaker.StateClosed
}

// AllHealthStatus returns the status of every upstream seen so far.
func (m *HealthMonitor) AllHealthStatus() map[string]HealthStatus {
	m.mu.Lock()
	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)

	result := make(map[string]HealthStatus, len(names))
	for _, name := range names {
		result[name] = statusFromState(m.GetBreakerState(name))
	}
	return result
}

// Register creates breakers for the named upstreams up front so they are
// reported before their first call.
func (m *HealthMonitor) Register(upstreams ...string) {
	for _, name := range upstreams {
		m.getOrCreateBreaker(name)
	}
}

func (m *HealthMonitor) getOrCreateBreaker(upstream string) *gobreaker.CircuitBreaker[any] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, ok := m.breakers[upstream]; ok {
		return breaker
	}

	threshold := m.config.FailureThreshold
	settings := gobreaker.Settings{
		Name:        upstream,
		MaxRequests: m.config.MaxHalfOpenRequests,
		Interval:    m.config.Interval,
		Timeout:     m.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Warn("upstream circuit state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m.metrics != nil {
				m.metrics.SetCircuitState(name, stateGauge(to))
			}
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	m.breakers[upstream] = breaker
	if m.metrics != nil {
		m.metrics.SetCircuitState(upstream, 0)
	}

	return breaker
}
