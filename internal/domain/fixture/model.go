package fixture

import (
	"time"

	"github.com/betania/sportsync/internal/domain/team"
)

// Short status codes as emitted by the upstream provider.
const (
	StatusNotStarted = "NS"
	StatusFirstHalf  = "1H"
	StatusHalfTime   = "HT"
	StatusSecondHalf = "2H"
	StatusFullTime   = "FT"
	StatusExtraTime  = "AET"
	StatusPenalties  = "PEN"
	StatusCancelled  = "CANC"
	StatusSuspended  = "SUSP"
)

type Status struct {
	Code    string `json:"code"`
	Long    string `json:"long,omitempty"`
	Elapsed *int   `json:"elapsed,omitempty"`
}

// Fixture represents one match.
type Fixture struct {
	ID         int64     `json:"id"`
	LeagueID   int64     `json:"leagueId"`
	LeagueName string    `json:"leagueName"`
	Country    string    `json:"country,omitempty"`
	Season     int       `json:"season"`
	KickoffAt  time.Time `json:"kickoffAt"`
	Venue      string    `json:"venue,omitempty"`
	Referee    string    `json:"referee,omitempty"`
	Home       team.Team `json:"home"`
	Away       team.Team `json:"away"`
	Status     Status    `json:"status"`
	HomeGoals  *int      `json:"homeGoals"`
	AwayGoals  *int      `json:"awayGoals"`
}

func IsLiveStatus(code string) bool {
	switch code {
	case StatusFirstHalf, StatusHalfTime, StatusSecondHalf:
		return true
	default:
		return false
	}
}

func IsFinishedStatus(code string) bool {
	switch code {
	case StatusFullTime, StatusExtraTime, StatusPenalties:
		return true
	default:
		return false
	}
}

// HasScore reports whether a goal count is meaningful for the status.
func HasScore(code string) bool {
	return IsLiveStatus(code) || IsFinishedStatus(code)
}

func (f Fixture) IsLive() bool {
	return IsLiveStatus(f.Status.Code)
}

func (f Fixture) IsToday(now time.Time) bool {
	y1, m1, d1 := f.KickoffAt.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (f Fixture) IsUpcoming(now time.Time) bool {
	return f.Status.Code == StatusNotStarted && f.KickoffAt.After(now)
}

// MergeByID appends live fixtures to the today set. When both slices
// carry the same fixture ID the today entry wins. Order of the today
// slice is preserved and unseen live fixtures keep their relative order.
func MergeByID(today, live []Fixture) []Fixture {
	merged := make([]Fixture, 0, len(today)+len(live))
	seen := make(map[int64]struct{}, len(today))
	for _, f := range today {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}
	for _, f := range live {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}
	return merged
}
