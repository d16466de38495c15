package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/platform/id"
	"github.com/betania/sportsync/internal/platform/logging"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

const (
	latencyWindow = 100
	maxAlerts     = 50

	criticalConsecutiveFailures = 5
	criticalErrorRate           = 0.8
	degradedConsecutiveFailures = 2
	degradedErrorRate           = 0.3
	degradedAvgLatency          = 3 * time.Second
	alertErrorRate              = 0.5
	alertMinRequests            = 5
	alertConsecutiveFailures    = 3
	alertAvgLatency             = 5 * time.Second
)

type HealthMetrics struct {
	Status              Status     `json:"status"`
	TotalRequests       int        `json:"totalRequests"`
	SuccessfulRequests  int        `json:"successfulRequests"`
	FailedRequests      int        `json:"failedRequests"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	ErrorRate           float64    `json:"errorRate"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt"`
	LastFailureAt       *time.Time `json:"lastFailureAt"`
}

type PerformanceMetrics struct {
	AvgLatency    time.Duration `json:"avgLatencyMs"`
	P95Latency    time.Duration `json:"p95LatencyMs"`
	SampleCount   int           `json:"sampleCount"`
	CacheRequests int           `json:"cacheRequests"`
	CacheStats    cache.Stats   `json:"cacheStats"`
}

type Snapshot struct {
	Status      Status             `json:"status"`
	Health      HealthMetrics      `json:"health"`
	Performance PerformanceMetrics `json:"performance"`
	Alerts      []Alert            `json:"alerts"`
	CheckedAt   time.Time          `json:"checkedAt"`
}

// Probe checks the upstream dependency and reports the round trip time.
type Probe interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Monitor aggregates request outcomes into health status and alerts.
type Monitor struct {
	mu sync.Mutex

	totalRequests       int
	successfulRequests  int
	consecutiveFailures int
	lastSuccessAt       *time.Time
	lastFailureAt       *time.Time

	// latencies is a ring of the most recent non-cached request times.
	latencies  []time.Duration
	latencyPos int

	cacheRequests int
	cacheStats    cache.Stats

	alerts []Alert

	listeners  map[int]func(Snapshot)
	listenerID int

	probe  Probe
	logger *logging.Logger
	idGen  id.Generator
	now    func() time.Time

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

type Options struct {
	Probe  Probe
	Logger *logging.Logger
	IDGen  id.Generator
	Now    func() time.Time
}

func New(opts Options) *Monitor {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.IDGen == nil {
		opts.IDGen = id.NewRandomGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		latencies: make([]time.Duration, 0, latencyWindow),
		listeners: make(map[int]func(Snapshot)),
		probe:     opts.Probe,
		logger:    opts.Logger,
		idGen:     opts.IDGen,
		now:       opts.Now,
	}
}

// RecordRequest feeds one request outcome into the metrics. Cached
// responses count for traffic but are excluded from latency samples.
func (m *Monitor) RecordRequest(latency time.Duration, success, fromCache bool) {
	m.mu.Lock()

	m.totalRequests++
	now := m.now()
	if success {
		m.successfulRequests++
		m.consecutiveFailures = 0
		m.lastSuccessAt = &now
	} else {
		m.consecutiveFailures++
		m.lastFailureAt = &now
	}

	if fromCache {
		m.cacheRequests++
	} else if latency > 0 {
		if len(m.latencies) < latencyWindow {
			m.latencies = append(m.latencies, latency)
		} else {
			m.latencies[m.latencyPos] = latency
			m.latencyPos = (m.latencyPos + 1) % latencyWindow
		}
	}

	m.raiseAlertsLocked()
	snap := m.snapshotLocked()
	listeners := m.listenersLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (m *Monitor) RecordCacheStats(stats cache.Stats) {
	m.mu.Lock()
	m.cacheStats = stats
	m.mu.Unlock()
}

// Subscribe registers a listener invoked after every recorded request.
// The returned function removes the listener.
func (m *Monitor) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	m.listenerID++
	id := m.listenerID
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// ResolveAlert marks an alert resolved. It reports false for unknown ids.
func (m *Monitor) ResolveAlert(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id && !m.alerts[i].Resolved {
			m.alerts[i].Resolved = true
			return true
		}
	}
	return false
}

// Reset clears all metrics and alerts back to a cold start.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.totalRequests = 0
	m.successfulRequests = 0
	m.consecutiveFailures = 0
	m.lastSuccessAt = nil
	m.lastFailureAt = nil
	m.latencies = m.latencies[:0]
	m.latencyPos = 0
	m.cacheRequests = 0
	m.alerts = nil
	m.mu.Unlock()
}

// PerformHealthCheck probes the upstream once and records the outcome.
func (m *Monitor) PerformHealthCheck(ctx context.Context) bool {
	if m.probe == nil {
		return false
	}

	latency, err := m.probe.Ping(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "health check failed", "error", err)
		m.RecordRequest(latency, false, false)
		return false
	}

	m.RecordRequest(latency, true, false)
	return true
}

// StartHealthLoop probes the upstream on a fixed interval until the
// context is done or StopHealthLoop is called.
func (m *Monitor) StartHealthLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.probe == nil {
		return
	}

	m.mu.Lock()
	if m.loopCancel != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.loopCancel = cancel
	m.loopDone = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.PerformHealthCheck(loopCtx)
			}
		}
	}()
}

func (m *Monitor) StopHealthLoop() {
	m.mu.Lock()
	cancel := m.loopCancel
	done := m.loopDone
	m.loopCancel = nil
	m.loopDone = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *Monitor) errorRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0
	}
	failed := m.totalRequests - m.successfulRequests
	return float64(failed) / float64(m.totalRequests)
}

func (m *Monitor) avgLatencyLocked() time.Duration {
	if len(m.latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range m.latencies {
		total += l
	}
	return total / time.Duration(len(m.latencies))
}

func (m *Monitor) p95LatencyLocked() time.Duration {
	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (len(sorted)*95 + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}

func (m *Monitor) statusLocked() Status {
	errorRate := m.errorRateLocked()
	switch {
	case m.consecutiveFailures >= criticalConsecutiveFailures || errorRate > criticalErrorRate:
		return StatusCritical
	case m.consecutiveFailures >= degradedConsecutiveFailures ||
		errorRate > degradedErrorRate ||
		m.avgLatencyLocked() > degradedAvgLatency:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

func (m *Monitor) snapshotLocked() Snapshot {
	alerts := make([]Alert, len(m.alerts))
	copy(alerts, m.alerts)

	return Snapshot{
		Status: m.statusLocked(),
		Health: HealthMetrics{
			Status:              m.statusLocked(),
			TotalRequests:       m.totalRequests,
			SuccessfulRequests:  m.successfulRequests,
			FailedRequests:      m.totalRequests - m.successfulRequests,
			ConsecutiveFailures: m.consecutiveFailures,
			ErrorRate:           m.errorRateLocked(),
			LastSuccessAt:       m.lastSuccessAt,
			LastFailureAt:       m.lastFailureAt,
		},
		Performance: PerformanceMetrics{
			AvgLatency:    m.avgLatencyLocked(),
			P95Latency:    m.p95LatencyLocked(),
			SampleCount:   len(m.latencies),
			CacheRequests: m.cacheRequests,
			CacheStats:    m.cacheStats,
		},
		Alerts:    alerts,
		CheckedAt: m.now(),
	}
}

func (m *Monitor) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}

func (m *Monitor) raiseAlertsLocked() {
	errorRate := m.errorRateLocked()
	if errorRate > alertErrorRate && m.totalRequests > alertMinRequests {
		m.addAlertLocked(AlertError, fmt.Sprintf("High error rate: %.0f%% of requests failing", errorRate*100))
	}
	if m.consecutiveFailures >= alertConsecutiveFailures {
		m.addAlertLocked(AlertError, fmt.Sprintf("Consecutive failures: %d requests failed in a row", m.consecutiveFailures))
	}
	if avg := m.avgLatencyLocked(); avg > alertAvgLatency {
		m.addAlertLocked(AlertWarning, fmt.Sprintf("Slow responses: average latency %dms", avg.Milliseconds()))
	}
}

// addAlertLocked deduplicates against unresolved alerts by type plus
// the message prefix before the first colon.
func (m *Monitor) addAlertLocked(kind AlertType, message string) {
	prefix := alertPrefix(message)
	for _, a := range m.alerts {
		if !a.Resolved && a.Type == kind && alertPrefix(a.Message) == prefix {
			return
		}
	}

	alertID, err := m.idGen.NewID()
	if err != nil {
		alertID = fmt.Sprintf("%s-%d", kind, m.now().UnixNano())
	}

	alert := Alert{
		ID:        alertID,
		Type:      kind,
		Message:   message,
		Timestamp: m.now(),
	}

	m.alerts = append([]Alert{alert}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}

	m.logger.Warn("system alert raised", "type", string(kind), "message", message)
}

func alertPrefix(message string) string {
	if idx := strings.IndexByte(message, ':'); idx >= 0 {
		return message[:idx]
	}
	return message
}
