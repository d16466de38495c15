package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/domain/fixture"
	"github.com/betania/sportsync/internal/domain/league"
	"github.com/betania/sportsync/internal/domain/odds"
	"github.com/betania/sportsync/internal/domain/performer"
	"github.com/betania/sportsync/internal/domain/team"
	"github.com/betania/sportsync/internal/platform/debounce"
	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/betania/sportsync/internal/staticdata"
	"github.com/betania/sportsync/internal/store"
	"github.com/sourcegraph/conc"
)

type SyncConfig struct {
	DefaultLeagueID     int64
	RefreshInterval     time.Duration
	LeagueSwitchDelay   time.Duration
	SeasonReferenceYear int
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.DefaultLeagueID == 0 {
		c.DefaultLeagueID = league.SerieAID
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 2 * time.Minute
	}
	if c.LeagueSwitchDelay <= 0 {
		c.LeagueSwitchDelay = 300 * time.Millisecond
	}
	return c
}

// RankingMeta records which season a player ranking was actually
// resolved from.
type RankingMeta struct {
	Season       int  `json:"season"`
	UsedFallback bool `json:"usedFallback"`
}

// Snapshot is one consistent view of all synced sports data.
type Snapshot struct {
	LeagueID       int64                 `json:"leagueId"`
	Season         int                   `json:"season"`
	Fixtures       []fixture.Fixture     `json:"fixtures"`
	Leagues        []league.League       `json:"leagues"`
	Teams          []team.Team           `json:"teams"`
	Odds           []odds.Odds           `json:"odds"`
	Standings      []json.RawMessage     `json:"standings"`
	TopScorers     []performer.Performer `json:"topScorers"`
	TopYellowCards []performer.Performer `json:"topYellowCards"`
	TopRedCards    []performer.Performer `json:"topRedCards"`
	ScorersMeta    RankingMeta           `json:"scorersMeta"`
	YellowMeta     RankingMeta           `json:"yellowMeta"`
	RedMeta        RankingMeta           `json:"redMeta"`
	NoData         bool                  `json:"noData"`
	SyncedAt       time.Time             `json:"syncedAt"`
}

type cycleRun struct {
	seq  uint64
	done chan struct{}
	snap Snapshot
	err  error
}

// SyncService runs the periodic synchronization cycle: it pulls every
// data slot in parallel through the scheduler, merges fixtures, applies
// the season fallback for rankings, and publishes one snapshot.
// Concurrent refresh calls coalesce onto the in-flight cycle and a
// finished cycle never overwrites data published by a newer one.
type SyncService struct {
	provider DataProvider
	cache    *cache.SmartCache
	filters  *store.FilterStore
	logger   *logging.Logger
	cfg      SyncConfig
	now      func() time.Time

	mu           sync.Mutex
	inflight     *cycleRun
	seqCounter   uint64
	publishedSeq uint64
	current      Snapshot
	hasData      bool
	lastErr      error

	// pushMu orders store pushes and listener fan-out by cycle seq so
	// a slow cycle cannot overwrite data a newer one already pushed.
	pushMu    sync.Mutex
	pushedSeq uint64

	subscribers map[int]func(Snapshot)
	subID       int

	leagueDebounce *debounce.Debouncer
	lastLeagueID   int64

	runCtx       context.Context
	loopCancel   context.CancelFunc
	loopDone     chan struct{}
	unsubFilters func()
}

func NewSyncService(provider DataProvider, smartCache *cache.SmartCache, filters *store.FilterStore, logger *logging.Logger, cfg SyncConfig) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}

	s := &SyncService{
		provider:    provider,
		cache:       smartCache,
		filters:     filters,
		logger:      logger,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
		subscribers: make(map[int]func(Snapshot)),
		runCtx:      context.Background(),
	}
	s.lastLeagueID = s.cfg.DefaultLeagueID
	s.leagueDebounce = debounce.New(s.cfg.LeagueSwitchDelay, 0, s.refreshInBackground)
	return s
}

// Snapshot returns the last published snapshot; ok is false before the
// first successful cycle.
func (s *SyncService) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasData
}

// LastError reports the failure of the most recent cycle, nil when the
// last cycle published.
func (s *SyncService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers a listener invoked after every published
// snapshot. The returned function removes the listener.
func (s *SyncService) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	s.subID++
	id := s.subID
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SelectLeague records the league choice; the refresh it implies is
// debounced so rapid switching settles on the final selection.
func (s *SyncService) SelectLeague(id int64) {
	s.filters.SetSelectedLeague(id)
}

// Refresh runs one synchronization cycle. When a cycle is already in
// flight the call waits for it and shares its outcome instead of
// starting another. force drops cached fixtures and odds first.
func (s *SyncService) Refresh(ctx context.Context, force bool) (Snapshot, error) {
	s.mu.Lock()
	if run := s.inflight; run != nil {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-run.done:
			return run.snap, run.err
		}
	}
	s.seqCounter++
	run := &cycleRun{seq: s.seqCounter, done: make(chan struct{})}
	s.inflight = run
	s.mu.Unlock()

	snap, err := s.runCycle(ctx, force)

	s.mu.Lock()
	run.snap, run.err = snap, err
	s.lastErr = err
	published := err == nil && run.seq > s.publishedSeq
	if published {
		s.publishedSeq = run.seq
		s.current = snap
		s.hasData = true
	}
	s.inflight = nil
	var listeners []func(Snapshot)
	if published {
		listeners = make([]func(Snapshot), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()
	close(run.done)

	if err != nil {
		return snap, err
	}
	if published {
		s.pushSnapshot(run.seq, snap, listeners)
	}
	return snap, nil
}

// pushSnapshot forwards a published snapshot to the filter store and
// the snapshot listeners. Pushes happen outside s.mu because the
// store notifies its own subscribers synchronously, so the seq guard
// is re-checked here: a cycle that lost the race to a newer one is
// dropped instead of clobbering the store.
func (s *SyncService) pushSnapshot(seq uint64, snap Snapshot, listeners []func(Snapshot)) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if seq <= s.pushedSeq {
		return
	}
	s.pushedSeq = seq

	s.filters.UpdateData(snap.Fixtures, snap.Leagues, snap.Teams)
	for _, fn := range listeners {
		fn(snap)
	}
}

// Start launches the auto-refresh loop and begins reacting to league
// switches. It runs one immediate cycle before returning the control
// to the caller.
func (s *SyncService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.loopCancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.runCtx = loopCtx
	s.loopCancel = cancel
	s.loopDone = done
	s.mu.Unlock()

	s.unsubFilters = s.filters.Subscribe(func(st store.State) {
		s.mu.Lock()
		changed := st.SelectedLeagueID != s.lastLeagueID
		s.lastLeagueID = st.SelectedLeagueID
		s.mu.Unlock()
		if changed {
			s.leagueDebounce.Trigger()
		}
	})

	go func() {
		defer close(done)

		if _, err := s.Refresh(loopCtx, false); err != nil {
			s.logger.WarnContext(loopCtx, "initial sync cycle failed", "error", err)
		}

		ticker := time.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				busy := s.inflight != nil
				s.mu.Unlock()
				if busy {
					continue
				}
				if _, err := s.Refresh(loopCtx, false); err != nil {
					s.logger.WarnContext(loopCtx, "scheduled sync cycle failed", "error", err)
				}
			}
		}
	}()
}

func (s *SyncService) Stop() {
	s.mu.Lock()
	cancel := s.loopCancel
	done := s.loopDone
	unsub := s.unsubFilters
	s.loopCancel = nil
	s.loopDone = nil
	s.unsubFilters = nil
	s.mu.Unlock()

	s.leagueDebounce.Cancel()
	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *SyncService) refreshInBackground() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()

	if _, err := s.Refresh(ctx, false); err != nil {
		s.logger.WarnContext(ctx, "league switch sync cycle failed", "error", err)
	}
}

type slotResult struct {
	name string
	err  error
}

func (s *SyncService) runCycle(ctx context.Context, force bool) (Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.runCycle")
	defer span.End()

	leagueID := s.cfg.DefaultLeagueID
	if st := s.filters.State(); st.SelectedLeagueID != 0 {
		leagueID = st.SelectedLeagueID
	}

	now := s.now()
	primarySeason, fallbackSeason := ResolveSeason(leagueID, now, s.cfg.SeasonReferenceYear)
	leagueParam := strconv.FormatInt(leagueID, 10)
	seasonParam := strconv.Itoa(primarySeason)
	today := now.UTC().Format("2006-01-02")

	if force {
		if removed, err := s.cache.InvalidatePattern(ctx, `^(fixtures|odds)_`); err == nil {
			s.logger.DebugContext(ctx, "forced refresh invalidated cache entries", "count", removed)
		}
	}

	var (
		todayFixtures []fixture.Fixture
		liveFixtures  []fixture.Fixture
		leagues       []league.League
		teams         []team.Team
		oddsList      []odds.Odds
		standings     []json.RawMessage
		scorers       []performer.Performer
		yellows       []performer.Performer
		reds          []performer.Performer
		scorersMeta   RankingMeta
		yellowMeta    RankingMeta
		redMeta       RankingMeta
	)

	results := make([]slotResult, 9)
	var wg conc.WaitGroup

	wg.Go(func() {
		todayFixtures, results[0].err = fetchMapped(ctx, s,
			fmt.Sprintf("fixtures_today_%s_%s", leagueParam, today), cache.KindFixturesToday,
			"fixtures", map[string]string{"league": leagueParam, "season": seasonParam, "date": today},
			mapExternalFixture)
		results[0].name = "fixtures_today"
	})
	wg.Go(func() {
		liveFixtures, results[1].err = fetchMapped(ctx, s,
			fmt.Sprintf("fixtures_live_%s", leagueParam), cache.KindFixturesLive,
			"fixtures", map[string]string{"league": leagueParam, "live": "all"},
			mapExternalFixture)
		results[1].name = "fixtures_live"
	})
	wg.Go(func() {
		leagues, results[2].err = fetchMapped(ctx, s,
			"leagues_br", cache.KindLeagues,
			"leagues", map[string]string{"country": "Brazil"},
			mapExternalLeague)
		results[2].name = "leagues"
	})
	wg.Go(func() {
		teams, results[3].err = fetchMapped(ctx, s,
			fmt.Sprintf("teams_%s_%s", leagueParam, seasonParam), cache.KindTeams,
			"teams", map[string]string{"league": leagueParam, "season": seasonParam},
			mapExternalTeam)
		results[3].name = "teams"
	})
	wg.Go(func() {
		oddsList, results[4].err = fetchMapped(ctx, s,
			fmt.Sprintf("odds_%s_%s", leagueParam, today), cache.KindOddsPrematch,
			"odds", map[string]string{"league": leagueParam, "date": today},
			mapExternalOdds)
		results[4].name = "odds"
	})
	wg.Go(func() {
		var raw json.RawMessage
		raw, results[5].err = s.fetchSlot(ctx,
			fmt.Sprintf("standings_%s_%s", leagueParam, seasonParam), cache.KindStandings,
			"standings", map[string]string{"league": leagueParam, "season": seasonParam})
		if results[5].err == nil {
			standings, results[5].err = decodeRecords[json.RawMessage](raw)
		}
		results[5].name = "standings"
	})
	wg.Go(func() {
		scorers, scorersMeta, results[6].err = s.fetchRanking(ctx,
			"players/topscorers", performer.StatGoals, cache.KindTopScorers,
			leagueParam, primarySeason, fallbackSeason)
		results[6].name = "top_scorers"
	})
	wg.Go(func() {
		yellows, yellowMeta, results[7].err = s.fetchRanking(ctx,
			"players/topyellowcards", performer.StatYellowCards, cache.KindTopCards,
			leagueParam, primarySeason, fallbackSeason)
		results[7].name = "top_yellow_cards"
	})
	wg.Go(func() {
		reds, redMeta, results[8].err = s.fetchRanking(ctx,
			"players/topredcards", performer.StatRedCards, cache.KindTopCards,
			leagueParam, primarySeason, fallbackSeason)
		results[8].name = "top_red_cards"
	})

	wg.Wait()

	// a cancelled cycle must not publish an empty snapshot over good data
	if ctx.Err() != nil {
		return Snapshot{}, ctx.Err()
	}

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			s.logger.WarnContext(ctx, "sync slot failed, continuing with empty data", "slot", res.name, "error", res.err)
		}
	}

	fixtures := fixture.MergeByID(todayFixtures, liveFixtures)

	// the no-data state is judged before the static seeds paper over
	// empty leagues and teams
	noData := len(fixtures) == 0 && len(leagues) == 0 && len(teams) == 0 &&
		len(oddsList) == 0 && len(standings) == 0 &&
		len(scorers) == 0 && len(yellows) == 0 && len(reds) == 0

	if len(leagues) == 0 {
		leagues = staticdata.Leagues()
	}
	if len(teams) == 0 {
		teams = staticdata.Teams()
	}

	snap := Snapshot{
		LeagueID:       leagueID,
		Season:         primarySeason,
		Fixtures:       fixtures,
		Leagues:        leagues,
		Teams:          teams,
		Odds:           oddsList,
		Standings:      standings,
		TopScorers:     scorers,
		TopYellowCards: yellows,
		TopRedCards:    reds,
		ScorersMeta:    scorersMeta,
		YellowMeta:     yellowMeta,
		RedMeta:        redMeta,
		NoData:         noData,
		SyncedAt:       now,
	}

	s.logger.InfoContext(ctx, "sync cycle finished",
		"league", leagueID,
		"season", primarySeason,
		"fixtures", len(fixtures),
		"live", len(liveFixtures),
		"failed_slots", failed,
		"no_data", snap.NoData,
	)

	return snap, nil
}

// fetchSlot returns the raw record array for one slot, consulting the
// cache first and storing validated payloads under the kind policy.
func (s *SyncService) fetchSlot(ctx context.Context, key string, kind cache.Kind, endpoint string, params map[string]string) (json.RawMessage, error) {
	if data, ok := s.cache.Get(ctx, key); ok {
		return data, nil
	}

	res, err := s.provider.Fetch(ctx, endpoint, params, cache.PolicyFor(kind).Priority)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	// malformed payloads are rejected before they can be cached
	if _, err := decodeRecords[json.RawMessage](res.Data); err != nil {
		return nil, fmt.Errorf("validate %s: %w", endpoint, err)
	}

	policy := cache.PolicyFor(kind)
	s.cache.Set(ctx, key, res.Data, policy.TTL, policy.Priority)
	return res.Data, nil
}

func fetchMapped[E, D any](ctx context.Context, s *SyncService, key string, kind cache.Kind, endpoint string, params map[string]string, mapFn func(E) (D, bool)) ([]D, error) {
	raw, err := s.fetchSlot(ctx, key, kind, endpoint, params)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords[E](raw)
	if err != nil {
		return nil, err
	}

	out := make([]D, 0, len(records))
	for _, rec := range records {
		if mapped, ok := mapFn(rec); ok {
			out = append(out, mapped)
		}
	}
	return out, nil
}

// fetchRanking pulls one player ranking, retrying once on the fallback
// season when the pinned season comes back empty.
func (s *SyncService) fetchRanking(ctx context.Context, endpoint string, kind performer.StatKind, cacheKind cache.Kind, leagueParam string, primarySeason, fallbackSeason int) ([]performer.Performer, RankingMeta, error) {
	mapFn := func(e externalPlayer) (performer.Performer, bool) {
		return mapExternalPlayer(e, kind)
	}

	key := fmt.Sprintf("%s_%s_%s_%d", cacheKind, kind, leagueParam, primarySeason)
	list, err := fetchMapped(ctx, s, key, cacheKind, endpoint,
		map[string]string{"league": leagueParam, "season": strconv.Itoa(primarySeason)}, mapFn)
	if err != nil {
		return nil, RankingMeta{Season: primarySeason}, err
	}
	if len(list) > 0 || fallbackSeason == primarySeason {
		return TopPerformers(list), RankingMeta{Season: primarySeason}, nil
	}

	fbKey := fmt.Sprintf("%s_%s_%s_%d", cacheKind, kind, leagueParam, fallbackSeason)
	fbList, fbErr := fetchMapped(ctx, s, fbKey, cacheKind, endpoint,
		map[string]string{"league": leagueParam, "season": strconv.Itoa(fallbackSeason)}, mapFn)
	if fbErr != nil || len(fbList) == 0 {
		if fbErr != nil {
			s.logger.WarnContext(ctx, "ranking fallback season failed", "endpoint", endpoint, "season", fallbackSeason, "error", fbErr)
		}
		return TopPerformers(list), RankingMeta{Season: primarySeason}, nil
	}

	return TopPerformers(fbList), RankingMeta{Season: fallbackSeason, UsedFallback: true}, nil
}
