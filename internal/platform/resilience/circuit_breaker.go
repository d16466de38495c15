package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("request proxy circuit open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig tunes the breaker guarding the request proxy.
// Zero values fall back to defaults; a disabled breaker admits everything.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	ProbeRequests    int
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultProbeRequests    = 2
)

// CircuitBreaker trips after consecutive failures, rejects calls for a
// cool-off period, then admits a bounded number of probe requests. All
// probes must succeed before the breaker closes again.
type CircuitBreaker struct {
	mu sync.Mutex

	enabled    bool
	threshold  int
	cooloff    time.Duration
	probeQuota int

	state          CircuitState
	failures       int
	trippedAt      time.Time
	probesInFlight int
	probesOK       int
	now            func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.ProbeRequests < 1 {
		cfg.ProbeRequests = defaultProbeRequests
	}

	return &CircuitBreaker{
		enabled:    cfg.Enabled,
		threshold:  cfg.FailureThreshold,
		cooloff:    cfg.OpenTimeout,
		probeQuota: cfg.ProbeRequests,
		state:      CircuitStateClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. During the cool-off period
// it returns ErrCircuitOpen; afterwards it admits probes up to the quota.
func (b *CircuitBreaker) Allow() error {
	if !b.enabled {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.trippedAt) < b.cooloff {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.probesInFlight = 0
		b.probesOK = 0
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesInFlight >= b.probeQuota {
			return ErrCircuitOpen
		}
		b.probesInFlight++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.probesOK++
		if b.probesOK >= b.probeQuota && b.probesInFlight == 0 {
			b.state = CircuitStateClosed
			b.failures = 0
			b.trippedAt = time.Time{}
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.trip()
	case CircuitStateOpen:
		// extend the cool-off window
		b.trippedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	if !b.enabled {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.trippedAt) >= b.cooloff {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitStateOpen
	b.trippedAt = b.now()
	b.probesInFlight = 0
	b.probesOK = 0
}
