package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memPersistence struct {
	mu      sync.Mutex
	entries map[string]Entry
	saveErr error
}

func newMemPersistence() *memPersistence {
	return &memPersistence{entries: make(map[string]Entry)}
}

func (p *memPersistence) SaveEntry(_ context.Context, entry Entry) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.mu.Lock()
	p.entries[entry.Key] = entry
	p.mu.Unlock()
	return nil
}

func (p *memPersistence) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.entries, key)
	p.mu.Unlock()
	return nil
}

func (p *memPersistence) LoadAll(_ context.Context) ([]Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	return out, nil
}

func (p *memPersistence) Clear(_ context.Context) error {
	p.mu.Lock()
	p.entries = make(map[string]Entry)
	p.mu.Unlock()
	return nil
}

func TestGetHonorsTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{Now: clock.Now})
	ctx := context.Background()

	c.Set(ctx, "fixtures_live_71", []byte(`[]`), 30*time.Second, PriorityHigh)
	if _, ok := c.Get(ctx, "fixtures_live_71"); !ok {
		t.Fatal("expected fresh entry to hit")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get(ctx, "fixtures_live_71"); ok {
		t.Fatal("expected expired entry to miss")
	}

	stats := c.Stats()
	if stats.TotalEntries != 0 {
		t.Fatalf("expected expired entry to be removed on read, got %d entries", stats.TotalEntries)
	}
}

func TestEvictionDropsLowPriorityOldestFirst(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{MaxEntries: 5, Now: clock.Now})
	ctx := context.Background()

	c.Set(ctx, "low_old", []byte(`1`), time.Hour, PriorityLow)
	clock.Advance(time.Second)
	c.Set(ctx, "low_new", []byte(`1`), time.Hour, PriorityLow)
	clock.Advance(time.Second)
	c.Set(ctx, "med", []byte(`1`), time.Hour, PriorityMedium)
	clock.Advance(time.Second)
	c.Set(ctx, "high_a", []byte(`1`), time.Hour, PriorityHigh)
	clock.Advance(time.Second)
	c.Set(ctx, "high_b", []byte(`1`), time.Hour, PriorityHigh)
	clock.Advance(time.Second)

	// sixth insert exceeds capacity 5, evicting ceil(5*0.2) = 1 entry
	c.Set(ctx, "trigger", []byte(`1`), time.Hour, PriorityHigh)

	if _, ok := c.Get(ctx, "low_old"); ok {
		t.Fatal("expected oldest low-priority entry to be evicted")
	}
	for _, key := range []string{"low_new", "med", "high_a", "high_b", "trigger"} {
		if _, ok := c.Get(ctx, key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
}

func TestEvictionCountIsCeilTwentyPercent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{MaxEntries: 7, Now: clock.Now})
	ctx := context.Background()

	keys := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, key := range keys {
		c.Set(ctx, key, []byte(`1`), time.Hour, PriorityLow)
		clock.Advance(time.Second)
	}

	// ceil(7*0.2) = 2 evictions before the new entry lands
	c.Set(ctx, "h", []byte(`1`), time.Hour, PriorityLow)

	if got := c.Stats().TotalEntries; got != 6 {
		t.Fatalf("expected 6 entries after eviction, got %d", got)
	}
	for _, key := range []string{"a", "b"} {
		if _, ok := c.Get(ctx, key); ok {
			t.Fatalf("expected %s to be evicted", key)
		}
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{MaxEntries: 2, Now: clock.Now})
	ctx := context.Background()

	c.Set(ctx, "a", []byte(`1`), time.Hour, PriorityLow)
	c.Set(ctx, "b", []byte(`1`), time.Hour, PriorityLow)
	c.Set(ctx, "a", []byte(`2`), time.Hour, PriorityLow)

	if got := c.Stats().TotalEntries; got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if data, _ := c.Get(ctx, "a"); string(data) != "2" {
		t.Fatalf("expected overwritten payload, got %s", data)
	}
}

func TestInvalidatePattern(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	ctx := context.Background()

	c.Set(ctx, "fixtures_today_71", []byte(`1`), time.Hour, PriorityHigh)
	c.Set(ctx, "fixtures_live_71", []byte(`1`), time.Hour, PriorityHigh)
	c.Set(ctx, "odds_71", []byte(`1`), time.Hour, PriorityMedium)
	c.Set(ctx, "leagues_all", []byte(`1`), time.Hour, PriorityLow)

	removed, err := c.InvalidatePattern(ctx, `^(fixtures|odds)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removals, got %d", removed)
	}
	if _, ok := c.Get(ctx, "leagues_all"); !ok {
		t.Fatal("expected unmatched key to survive")
	}

	if _, err := c.InvalidatePattern(ctx, `([`); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestStatsHitRate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{Now: clock.Now})
	ctx := context.Background()

	if got := c.Stats().HitRate; got != 0 {
		t.Fatalf("expected 0 hit rate on empty cache, got %v", got)
	}

	c.Set(ctx, "short", []byte(`1`), time.Minute, PriorityLow)
	c.Set(ctx, "long", []byte(`1`), time.Hour, PriorityLow)
	clock.Advance(2 * time.Minute)

	stats := c.Stats()
	if stats.TotalEntries != 2 || stats.ValidEntries != 1 || stats.ExpiredEntries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	persist := newMemPersistence()
	ctx := context.Background()

	first := New(Options{Persistence: persist, Now: clock.Now})
	first.Set(ctx, "keep", []byte(`{"a":1}`), time.Hour, PriorityHigh)
	first.Set(ctx, "expire", []byte(`{"b":2}`), time.Minute, PriorityLow)

	clock.Advance(5 * time.Minute)

	second := New(Options{Persistence: persist, Now: clock.Now})
	if err := second.LoadPersisted(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data, ok := second.Get(ctx, "keep"); !ok || string(data) != `{"a":1}` {
		t.Fatalf("expected persisted entry to survive restart, got %q (found=%v)", data, ok)
	}
	if _, ok := second.Get(ctx, "expire"); ok {
		t.Fatal("expected expired entry to be purged on load")
	}
}

func TestPersistenceFailureDoesNotBlockWrites(t *testing.T) {
	t.Parallel()

	persist := newMemPersistence()
	persist.saveErr = context.DeadlineExceeded
	c := New(Options{Persistence: persist})
	ctx := context.Background()

	c.Set(ctx, "k", []byte(`1`), time.Hour, PriorityLow)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("expected entry to be readable despite persistence failure")
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Options{SweepInterval: 10 * time.Millisecond, Now: clock.Now})
	ctx := context.Background()

	c.Set(ctx, "stale", []byte(`1`), time.Second, PriorityLow)
	c.Set(ctx, "fresh", []byte(`1`), time.Hour, PriorityHigh)
	clock.Advance(2 * time.Second)

	c.StartSweep(ctx)
	defer c.StopSweep()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Stats().TotalEntries == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected sweep to remove stale entry, have %d entries", c.Stats().TotalEntries)
}
