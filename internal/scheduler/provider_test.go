package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/betania/sportsync/internal/cache"
)

func TestProviderFetch(t *testing.T) {
	t.Parallel()

	caller := &stubCaller{}
	s, err := New(Options{Caller: caller, DebounceWindow: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Close)

	provider := Provider{Scheduler: s}
	res, err := provider.Fetch(context.Background(), "fixtures", map[string]string{"league": "71"}, cache.PriorityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Data) != `[]` {
		t.Fatalf("unexpected payload: %s", res.Data)
	}
}

func TestMapPriority(t *testing.T) {
	t.Parallel()

	if mapPriority(cache.PriorityHigh) != PriorityHigh {
		t.Fatal("high must map to high")
	}
	if mapPriority(cache.PriorityMedium) != PriorityMedium {
		t.Fatal("medium must map to medium")
	}
	if mapPriority(cache.PriorityLow) != PriorityLow {
		t.Fatal("low must map to low")
	}
}
