package cache

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/betania/sportsync/internal/platform/logging"
)

type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Entry is one cached payload together with its freshness metadata.
type Entry struct {
	Key       string
	Data      []byte
	Timestamp time.Time
	TTL       time.Duration
	Priority  Priority
}

func (e Entry) expiresAt() time.Time {
	return e.Timestamp.Add(e.TTL)
}

// Persistence is the durable backing for cache entries. Implementations
// must tolerate being called concurrently.
type Persistence interface {
	SaveEntry(ctx context.Context, entry Entry) error
	Remove(ctx context.Context, key string) error
	LoadAll(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}

type Stats struct {
	TotalEntries   int     `json:"totalEntries"`
	ValidEntries   int     `json:"validEntries"`
	ExpiredEntries int     `json:"expiredEntries"`
	HitRate        float64 `json:"hitRate"`
	MaxEntries     int     `json:"maxEntries"`
}

type Options struct {
	MaxEntries    int
	SweepInterval time.Duration
	Persistence   Persistence
	Logger        *logging.Logger
	Now           func() time.Time
}

// SmartCache is a priority-aware TTL cache with bounded capacity.
// Writes past capacity evict the oldest low-priority entries first.
type SmartCache struct {
	mu      sync.Mutex
	entries map[string]Entry

	maxEntries int
	sweepEvery time.Duration
	persist    Persistence
	logger     *logging.Logger
	now        func() time.Time

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

func New(opts Options) *SmartCache {
	if opts.MaxEntries < 1 {
		opts.MaxEntries = 50
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SmartCache{
		entries:    make(map[string]Entry),
		maxEntries: opts.MaxEntries,
		sweepEvery: opts.SweepInterval,
		persist:    opts.Persistence,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// LoadPersisted hydrates the in-memory map from the durable store,
// dropping entries that expired while the process was down.
func (c *SmartCache) LoadPersisted(ctx context.Context) error {
	if c.persist == nil {
		return nil
	}

	persisted, err := c.persist.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load persisted cache entries: %w", err)
	}

	now := c.now()
	loaded, expired := 0, 0
	c.mu.Lock()
	for _, e := range persisted {
		if !e.expiresAt().After(now) {
			expired++
			continue
		}
		c.entries[e.Key] = e
		loaded++
	}
	c.mu.Unlock()

	for _, e := range persisted {
		if !e.expiresAt().After(now) {
			if removeErr := c.persist.Remove(ctx, e.Key); removeErr != nil {
				c.logger.WarnContext(ctx, "failed to drop expired persisted entry", "key", e.Key, "error", removeErr)
			}
		}
	}

	c.logger.InfoContext(ctx, "cache hydrated from persistence", "loaded", loaded, "expired", expired)
	return nil
}

func (c *SmartCache) Get(_ context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	now := c.now()
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expiresAt().After(now) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	return e.Data, true
}

func (c *SmartCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration, priority Priority) {
	if key == "" || ttl <= 0 {
		return
	}

	entry := Entry{
		Key:       key,
		Data:      data,
		Timestamp: c.now(),
		TTL:       ttl,
		Priority:  priority,
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = entry
	c.mu.Unlock()

	if c.persist != nil {
		if err := c.persist.SaveEntry(ctx, entry); err != nil {
			c.logger.WarnContext(ctx, "failed to persist cache entry", "key", key, "error", err)
		}
	}
}

// evictLocked removes ceil(20%) of entries, lowest priority first and
// oldest first inside a priority band. Caller holds the lock.
func (c *SmartCache) evictLocked() {
	if len(c.entries) == 0 {
		return
	}

	candidates := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})

	evict := (len(candidates) + 4) / 5
	if evict < 1 {
		evict = 1
	}
	for _, e := range candidates[:evict] {
		delete(c.entries, e.Key)
	}

	c.logger.Debug("evicted cache entries", "count", evict, "remaining", len(c.entries))
}

func (c *SmartCache) Invalidate(ctx context.Context, key string) {
	if key == "" {
		return
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.persist != nil {
		if err := c.persist.Remove(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "failed to remove persisted cache entry", "key", key, "error", err)
		}
	}
}

// InvalidatePattern drops every entry whose key matches the regular
// expression and returns how many were removed.
func (c *SmartCache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid cache key pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	matched := make([]string, 0)
	for key := range c.entries {
		if re.MatchString(key) {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.persist != nil {
		for _, key := range matched {
			if removeErr := c.persist.Remove(ctx, key); removeErr != nil {
				c.logger.WarnContext(ctx, "failed to remove persisted cache entry", "key", key, "error", removeErr)
			}
		}
	}

	return len(matched), nil
}

func (c *SmartCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	if c.persist != nil {
		if err := c.persist.Clear(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to clear persisted cache", "error", err)
		}
	}
}

// Stats reports entry counts at the time of the call. HitRate is the
// share of resident entries still fresh, not a request hit ratio.
func (c *SmartCache) Stats() Stats {
	now := c.now()

	c.mu.Lock()
	total := len(c.entries)
	valid := 0
	for _, e := range c.entries {
		if e.expiresAt().After(now) {
			valid++
		}
	}
	c.mu.Unlock()

	denom := total
	if denom < 1 {
		denom = 1
	}

	return Stats{
		TotalEntries:   total,
		ValidEntries:   valid,
		ExpiredEntries: total - valid,
		HitRate:        float64(valid) / float64(denom),
		MaxEntries:     c.maxEntries,
	}
}

// StartSweep launches the periodic expired-entry sweeper. It stops when
// the context is done or StopSweep is called.
func (c *SmartCache) StartSweep(ctx context.Context) {
	c.mu.Lock()
	if c.sweepCancel != nil {
		c.mu.Unlock()
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.sweepCancel = cancel
	c.sweepDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				c.sweepExpired(sweepCtx)
			}
		}
	}()
}

func (c *SmartCache) StopSweep() {
	c.mu.Lock()
	cancel := c.sweepCancel
	done := c.sweepDone
	c.sweepCancel = nil
	c.sweepDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *SmartCache) sweepExpired(ctx context.Context) {
	now := c.now()

	c.mu.Lock()
	expired := make([]string, 0)
	for key, e := range c.entries {
		if !e.expiresAt().After(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	if c.persist != nil {
		for _, key := range expired {
			if err := c.persist.Remove(ctx, key); err != nil {
				c.logger.WarnContext(ctx, "failed to remove persisted cache entry", "key", key, "error", err)
			}
		}
	}

	c.logger.Debug("swept expired cache entries", "count", len(expired))
}
