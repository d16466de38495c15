package store

import (
	"testing"
	"time"

	"github.com/betania/sportsync/internal/domain/fixture"
	"github.com/betania/sportsync/internal/domain/league"
	"github.com/betania/sportsync/internal/domain/team"
)

var testNow = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func newTestStore() *FilterStore {
	return New(Options{Now: func() time.Time { return testNow }})
}

func testFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		{
			ID:        1,
			LeagueID:  league.SerieAID,
			KickoffAt: testNow.Add(-time.Hour),
			Status:    fixture.Status{Code: fixture.StatusFirstHalf},
			Home:      team.Team{ID: 119, Name: "Palmeiras"},
			Away:      team.Team{ID: 127, Name: "Flamengo"},
		},
		{
			ID:        2,
			LeagueID:  league.SerieAID,
			KickoffAt: testNow.Add(3 * time.Hour),
			Status:    fixture.Status{Code: fixture.StatusNotStarted},
			Home:      team.Team{ID: 124, Name: "São Paulo"},
			Away:      team.Team{ID: 126, Name: "Santos"},
		},
		{
			ID:        3,
			LeagueID:  league.SerieAID,
			KickoffAt: testNow.Add(-26 * time.Hour),
			Status:    fixture.Status{Code: fixture.StatusFullTime},
			Home:      team.Team{ID: 123, Name: "Corinthians"},
			Away:      team.Team{ID: 119, Name: "Palmeiras"},
		},
		{
			ID:        4,
			LeagueID:  72,
			KickoffAt: testNow.Add(-time.Hour),
			Status:    fixture.Status{Code: fixture.StatusSecondHalf},
			Home:      team.Team{ID: 131, Name: "Sport Recife"},
			Away:      team.Team{ID: 119, Name: "Palmeiras"},
		},
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	st := newTestStore().State()
	if st.SelectedLeagueID != league.SerieAID {
		t.Fatalf("expected default league %d, got %d", league.SerieAID, st.SelectedLeagueID)
	}
	want := []int64{119, 127, 124}
	if len(st.FavoriteTeamIDs) != len(want) {
		t.Fatalf("unexpected favorites: %v", st.FavoriteTeamIDs)
	}
	for i, id := range want {
		if st.FavoriteTeamIDs[i] != id {
			t.Fatalf("unexpected favorites: %v", st.FavoriteTeamIDs)
		}
	}
	if st.ActiveFilter != FilterNone {
		t.Fatalf("expected no active filter, got %q", st.ActiveFilter)
	}
}

func TestSetActiveFilter(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.SetActiveFilter(FilterLive)
	if s.State().ActiveFilter != FilterLive {
		t.Fatal("expected live filter to be active")
	}
	s.SetActiveFilter(FilterLive)
	if s.State().ActiveFilter != FilterLive {
		t.Fatal("expected re-setting the same filter to keep it active")
	}
	s.SetActiveFilter(FilterUpcoming)
	if s.State().ActiveFilter != FilterUpcoming {
		t.Fatal("expected switching filters to replace the selection")
	}
	s.SetActiveFilter(FilterNone)
	if s.State().ActiveFilter != FilterNone {
		t.Fatal("expected the empty filter to clear the selection")
	}
}

func TestLeagueChangeClearsTeamSelection(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.SetSelectedTeam(119)
	s.SetSelectedLeague(72)

	st := s.State()
	if st.SelectedLeagueID != 72 || st.SelectedTeamID != 0 {
		t.Fatalf("unexpected state: league=%d team=%d", st.SelectedLeagueID, st.SelectedTeamID)
	}
}

func TestToggleFavoriteTeam(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.ToggleFavoriteTeam(126)
	if !s.IsFavorite(126) {
		t.Fatal("expected team to be added to favorites")
	}
	s.ToggleFavoriteTeam(126)
	if s.IsFavorite(126) {
		t.Fatal("expected toggle to remove the team")
	}
	s.ToggleFavoriteTeam(119)
	if s.IsFavorite(119) {
		t.Fatal("expected default favorite to be removed")
	}
}

func TestUpdateDataRecomputesCounters(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.UpdateData(testFixtures(), nil, nil)

	st := s.State()
	// counters span every synced fixture, regardless of league selection
	if st.TodayCount != 3 {
		t.Fatalf("expected 3 today, got %d", st.TodayCount)
	}
	if st.LiveCount != 2 {
		t.Fatalf("expected 2 live, got %d", st.LiveCount)
	}
	if st.UpcomingCount != 1 {
		t.Fatalf("expected 1 upcoming, got %d", st.UpcomingCount)
	}
}

func TestFilteredFixtures(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	s.UpdateData(testFixtures(), nil, nil)

	// fixture 4 is live too but belongs to league 72, not the selection
	s.SetActiveFilter(FilterLive)
	got := s.FilteredFixtures()
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected live fixtures: %+v", got)
	}

	s.SetSelectedLeague(72)
	got = s.FilteredFixtures()
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("unexpected live fixtures for league 72: %+v", got)
	}
	s.SetSelectedLeague(league.SerieAID)

	s.SetActiveFilter(FilterUpcoming)
	got = s.FilteredFixtures()
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected upcoming fixtures: %+v", got)
	}

	s.ClearFilters()
	s.SetSelectedTeam(119)
	got = s.FilteredFixtures()
	if len(got) != 2 {
		t.Fatalf("expected 2 fixtures for team 119, got %d", len(got))
	}

	// filter and team selection combine
	s.SetActiveFilter(FilterLive)
	got = s.FilteredFixtures()
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected combined filter result: %+v", got)
	}
}

func TestSubscribersNotifiedSynchronously(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	var seen []Filter
	cancel := s.Subscribe(func(st State) { seen = append(seen, st.ActiveFilter) })

	s.SetActiveFilter(FilterToday)
	if len(seen) != 1 || seen[0] != FilterToday {
		t.Fatalf("expected synchronous notification, got %v", seen)
	}

	cancel()
	s.SetActiveFilter(FilterLive)
	if len(seen) != 1 {
		t.Fatal("expected no notification after unsubscribe")
	}
}
