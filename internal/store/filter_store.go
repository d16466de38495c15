package store

import (
	"sync"
	"time"

	"github.com/betania/sportsync/internal/domain/fixture"
	"github.com/betania/sportsync/internal/domain/league"
	"github.com/betania/sportsync/internal/domain/team"
)

type Filter string

const (
	FilterNone     Filter = ""
	FilterToday    Filter = "today"
	FilterLive     Filter = "live"
	FilterUpcoming Filter = "upcoming"
)

// State is the full filter and data snapshot handed to readers and
// subscribers. Slices are shared and must be treated as read-only.
type State struct {
	ActiveFilter     Filter            `json:"activeFilter"`
	SelectedLeagueID int64             `json:"selectedLeagueId"`
	SelectedTeamID   int64             `json:"selectedTeamId"`
	FavoriteTeamIDs  []int64           `json:"favoriteTeamIds"`
	Fixtures         []fixture.Fixture `json:"fixtures"`
	Leagues          []league.League   `json:"leagues"`
	Teams            []team.Team       `json:"teams"`
	TodayCount       int               `json:"todayCount"`
	LiveCount        int               `json:"liveCount"`
	UpcomingCount    int               `json:"upcomingCount"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// FilterStore is the single-writer state holder behind the match list.
// All mutations funnel through its methods; subscribers are notified
// synchronously before the mutating call returns.
type FilterStore struct {
	mu    sync.RWMutex
	state State

	subscribers map[int]func(State)
	nextSubID   int

	now func() time.Time
}

type Options struct {
	DefaultLeagueID int64
	FavoriteTeamIDs []int64
	Now             func() time.Time
}

func New(opts Options) *FilterStore {
	if opts.DefaultLeagueID == 0 {
		opts.DefaultLeagueID = league.SerieAID
	}
	if opts.FavoriteTeamIDs == nil {
		// Palmeiras, Flamengo, São Paulo
		opts.FavoriteTeamIDs = []int64{119, 127, 124}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &FilterStore{
		state: State{
			SelectedLeagueID: opts.DefaultLeagueID,
			FavoriteTeamIDs:  opts.FavoriteTeamIDs,
		},
		subscribers: make(map[int]func(State)),
		now:         opts.Now,
	}
}

func (s *FilterStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a listener called after every mutation. The
// returned function removes the listener.
func (s *FilterStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SetActiveFilter replaces the active filter; FilterNone clears it.
func (s *FilterStore) SetActiveFilter(filter Filter) {
	s.mutate(func(st *State) {
		st.ActiveFilter = filter
	})
}

func (s *FilterStore) SetSelectedLeague(id int64) {
	s.mutate(func(st *State) {
		st.SelectedLeagueID = id
		// league change invalidates any team selection
		st.SelectedTeamID = 0
	})
}

func (s *FilterStore) SetSelectedTeam(id int64) {
	s.mutate(func(st *State) {
		st.SelectedTeamID = id
	})
}

func (s *FilterStore) ToggleFavoriteTeam(id int64) {
	s.mutate(func(st *State) {
		for i, fav := range st.FavoriteTeamIDs {
			if fav == id {
				next := make([]int64, 0, len(st.FavoriteTeamIDs)-1)
				next = append(next, st.FavoriteTeamIDs[:i]...)
				next = append(next, st.FavoriteTeamIDs[i+1:]...)
				st.FavoriteTeamIDs = next
				return
			}
		}
		next := make([]int64, 0, len(st.FavoriteTeamIDs)+1)
		next = append(next, st.FavoriteTeamIDs...)
		st.FavoriteTeamIDs = append(next, id)
	})
}

func (s *FilterStore) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fav := range s.state.FavoriteTeamIDs {
		if fav == id {
			return true
		}
	}
	return false
}

// UpdateData replaces the synced reference data and recomputes the
// filter counters in the same critical section.
func (s *FilterStore) UpdateData(fixtures []fixture.Fixture, leagues []league.League, teams []team.Team) {
	s.mutate(func(st *State) {
		now := s.now()
		today, live, upcoming := 0, 0, 0
		for _, f := range fixtures {
			if f.IsToday(now) {
				today++
			}
			if f.IsLive() {
				live++
			}
			if f.IsUpcoming(now) {
				upcoming++
			}
		}

		st.Fixtures = fixtures
		st.Leagues = leagues
		st.Teams = teams
		st.TodayCount = today
		st.LiveCount = live
		st.UpcomingCount = upcoming
	})
}

func (s *FilterStore) ClearFilters() {
	s.mutate(func(st *State) {
		st.ActiveFilter = FilterNone
		st.SelectedTeamID = 0
	})
}

// FilteredFixtures applies, in order, the league selection, the team
// selection and the active status filter to the current fixture set.
func (s *FilterStore) FilteredFixtures() []fixture.Fixture {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	now := s.now()
	out := make([]fixture.Fixture, 0, len(st.Fixtures))
	for _, f := range st.Fixtures {
		if st.SelectedLeagueID != 0 && f.LeagueID != st.SelectedLeagueID {
			continue
		}
		if st.SelectedTeamID != 0 && f.Home.ID != st.SelectedTeamID && f.Away.ID != st.SelectedTeamID {
			continue
		}
		switch st.ActiveFilter {
		case FilterToday:
			if !f.IsToday(now) {
				continue
			}
		case FilterLive:
			if !f.IsLive() {
				continue
			}
		case FilterUpcoming:
			if !f.IsUpcoming(now) {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func (s *FilterStore) mutate(apply func(*State)) {
	s.mu.Lock()
	apply(&s.state)
	s.state.UpdatedAt = s.now()
	snapshot := s.state
	listeners := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
