package scheduler

import (
	"context"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/usecase"
)

// Provider adapts the scheduler to the synchronizer's fetch interface:
// every slot pull goes through batching, dedupe and the worker pool.
type Provider struct {
	Scheduler *Scheduler
}

func (p Provider) Fetch(ctx context.Context, endpoint string, params map[string]string, priority cache.Priority) (usecase.FetchResult, error) {
	env, err := p.Scheduler.Schedule(ctx, Request{
		Endpoint: endpoint,
		Params:   params,
		Priority: mapPriority(priority),
	})
	if err != nil {
		return usecase.FetchResult{}, err
	}

	res := usecase.FetchResult{Data: env.Data}
	if env.Meta != nil {
		res.Cached = env.Meta.Cached
	}
	return res, nil
}

func mapPriority(p cache.Priority) Priority {
	switch p {
	case cache.PriorityHigh:
		return PriorityHigh
	case cache.PriorityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
