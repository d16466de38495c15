package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/betania/sportsync/internal/store"
)

// ChatContext is the payload handed to the assistant surface: the
// user's current selections, the match counters and a rendered
// plain-text summary of the snapshot.
type ChatContext struct {
	ActiveFilter     string  `json:"activeFilter"`
	SelectedLeagueID int64   `json:"selectedLeague"`
	SelectedTeamID   int64   `json:"selectedTeam"`
	FavoriteTeamIDs  []int64 `json:"favoriteTeams"`
	TodayCount       int     `json:"todayCount"`
	LiveCount        int     `json:"liveCount"`
	UpcomingCount    int     `json:"upcomingCount"`
	Summary          string  `json:"summary"`
}

// BuildChatContext assembles the assistant context from the current
// snapshot and filter state: selected league, active filter, match
// counters, live scores and the leading scorer.
func BuildChatContext(snap Snapshot, st store.State) ChatContext {
	var b strings.Builder

	leagueName := fmt.Sprintf("league %d", snap.LeagueID)
	for _, l := range snap.Leagues {
		if l.ID == snap.LeagueID {
			leagueName = l.Name
			break
		}
	}
	fmt.Fprintf(&b, "Selected league: %s (season %d)\n", leagueName, snap.Season)
	if st.ActiveFilter != store.FilterNone {
		fmt.Fprintf(&b, "Active filter: %s\n", st.ActiveFilter)
	}
	if st.SelectedTeamID != 0 {
		teamName := fmt.Sprintf("team %d", st.SelectedTeamID)
		for _, tm := range snap.Teams {
			if tm.ID == st.SelectedTeamID {
				teamName = tm.Name
				break
			}
		}
		fmt.Fprintf(&b, "Selected team: %s\n", teamName)
	}
	fmt.Fprintf(&b, "Matches: %d today, %d live, %d upcoming\n", st.TodayCount, st.LiveCount, st.UpcomingCount)

	if live := LiveGames(snap.Fixtures); len(live) > 0 {
		b.WriteString("Live now:\n")
		for _, game := range live {
			fmt.Fprintf(&b, "  %s %d x %d %s (%d')\n", game.Home, game.HomeGoals, game.AwayGoals, game.Away, game.Minute)
		}
	}

	if len(snap.TopScorers) > 0 {
		leader := snap.TopScorers[0]
		fmt.Fprintf(&b, "Top scorer: %s (%s) with %d goals", leader.Name, leader.Team, leader.Value)
		if snap.ScorersMeta.UsedFallback {
			fmt.Fprintf(&b, " [season %d]", snap.ScorersMeta.Season)
		}
		b.WriteString("\n")
	}

	if snap.NoData {
		b.WriteString("No fixture data is currently available.\n")
	}
	fmt.Fprintf(&b, "Data as of %s", snap.SyncedAt.UTC().Format(time.RFC3339))

	return ChatContext{
		ActiveFilter:     string(st.ActiveFilter),
		SelectedLeagueID: st.SelectedLeagueID,
		SelectedTeamID:   st.SelectedTeamID,
		FavoriteTeamIDs:  st.FavoriteTeamIDs,
		TodayCount:       st.TodayCount,
		LiveCount:        st.LiveCount,
		UpcomingCount:    st.UpcomingCount,
		Summary:          b.String(),
	}
}
