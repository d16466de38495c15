package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/betania/sportsync/external/apisports"
	"github.com/betania/sportsync/internal/monitor"
	"github.com/betania/sportsync/internal/platform/debounce"
	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
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

var ErrClosed = errors.New("scheduler is closed")

// Caller issues one proxied provider call.
type Caller interface {
	Call(ctx context.Context, endpoint string, params map[string]string) (apisports.Envelope, error)
}

type Request struct {
	Endpoint string
	Params   map[string]string
	Priority Priority
}

// Key is the dedupe identity of a request: endpoint plus its params in
// canonical order.
func (r Request) Key() string {
	values := url.Values{}
	for k, v := range r.Params {
		values.Set(k, v)
	}
	encoded := values.Encode() // url.Values encodes keys sorted
	if encoded == "" {
		return r.Endpoint
	}
	return r.Endpoint + "?" + encoded
}

type pendingCall struct {
	req  Request
	key  string
	done chan struct{}
	env  apisports.Envelope
	err  error
}

type Options struct {
	Caller         Caller
	Monitor        *monitor.Monitor
	MaxConcurrent  int
	DebounceWindow time.Duration
	MaxWait        time.Duration
	Logger         *logging.Logger
}

// Scheduler batches bursts of fetch requests behind a debounce window,
// deduplicates identical requests, and drains the batch highest
// priority first through a bounded worker pool.
type Scheduler struct {
	caller  Caller
	monitor *monitor.Monitor
	logger  *logging.Logger

	mu      sync.Mutex
	pending map[string]*pendingCall
	queued  []*pendingCall
	closed  bool

	pool      *ants.Pool
	debouncer *debounce.Debouncer

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

func New(opts Options) (*Scheduler, error) {
	if opts.Caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 3
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 100 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 300 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	pool, err := ants.NewPool(opts.MaxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	s := &Scheduler{
		caller:     opts.Caller,
		monitor:    opts.Monitor,
		logger:     opts.Logger,
		pending:    make(map[string]*pendingCall),
		pool:       pool,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
	s.debouncer = debounce.New(opts.DebounceWindow, opts.MaxWait, s.processBatch)
	return s, nil
}

// Schedule enqueues a request and blocks until its batch executes. A
// request identical to one already pending joins that call instead of
// issuing a second fetch. Cancelling the context abandons the wait but
// not the shared call.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (apisports.Envelope, error) {
	key := req.Key()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apisports.Envelope{}, ErrClosed
	}
	pc, ok := s.pending[key]
	if !ok {
		pc = &pendingCall{req: req, key: key, done: make(chan struct{})}
		s.pending[key] = pc
		s.queued = append(s.queued, pc)
	} else if req.Priority > pc.req.Priority {
		pc.req.Priority = req.Priority
	}
	s.mu.Unlock()

	if !ok {
		s.debouncer.Trigger()
	}

	select {
	case <-ctx.Done():
		return apisports.Envelope{}, ctx.Err()
	case <-pc.done:
		return pc.env, pc.err
	}
}

// Flush fires any pending batch immediately instead of waiting out the
// debounce window.
func (s *Scheduler) Flush() {
	s.debouncer.Flush()
}

// PendingCount reports requests accepted but not yet completed.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close rejects new work, fails requests still pending, and releases
// the worker pool.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	drained := make([]*pendingCall, 0, len(s.pending))
	for _, pc := range s.pending {
		drained = append(drained, pc)
	}
	s.pending = make(map[string]*pendingCall)
	s.queued = nil
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.baseCancel()
	for _, pc := range drained {
		pc.err = ErrClosed
		close(pc.done)
	}
	s.pool.Release()
}

func (s *Scheduler) processBatch() {
	s.mu.Lock()
	batch := s.queued
	s.queued = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].req.Priority > batch[j].req.Priority
	})

	s.logger.Debug("processing request batch", "size", len(batch), "keys", batchKeys(batch))

	for _, pc := range batch {
		pc := pc
		if err := s.pool.Submit(func() { s.execute(pc) }); err != nil {
			s.finish(pc, apisports.Envelope{}, fmt.Errorf("submit request: %w", err))
		}
	}
}

func (s *Scheduler) execute(pc *pendingCall) {
	start := time.Now()
	env, err := s.caller.Call(s.baseCtx, pc.req.Endpoint, pc.req.Params)
	latency := time.Since(start)

	if s.monitor != nil {
		fromCache := err == nil && env.Meta != nil && env.Meta.Cached
		s.monitor.RecordRequest(latency, err == nil, fromCache)
	}

	s.finish(pc, env, err)
}

func (s *Scheduler) finish(pc *pendingCall, env apisports.Envelope, err error) {
	s.mu.Lock()
	if s.pending[pc.key] == pc {
		delete(s.pending, pc.key)
	}
	closed := s.closed
	s.mu.Unlock()

	// Close already failed every drained call.
	if closed {
		return
	}

	pc.env = env
	pc.err = err
	close(pc.done)
}

func batchKeys(batch []*pendingCall) string {
	keys := make([]string, 0, len(batch))
	for _, pc := range batch {
		keys = append(keys, pc.key)
	}
	return strings.Join(keys, ",")
}
