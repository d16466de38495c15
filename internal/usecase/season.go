package usecase

import "time"

// seasonRule describes how a league numbers its seasons.
type seasonRule uint8

const (
	// seasonCalendarYear is the Brazilian format: the season is named
	// after the calendar year it is played in.
	seasonCalendarYear seasonRule = iota
	// seasonSpanning is the European format: a season crossing the new
	// year is named after its starting year.
	seasonSpanning
)

var seasonRules = map[int64]seasonRule{
	71:  seasonCalendarYear, // Série A
	72:  seasonCalendarYear, // Série B
	73:  seasonCalendarYear, // Copa do Brasil
	74:  seasonCalendarYear,
	75:  seasonCalendarYear, // Série C
	76:  seasonCalendarYear, // Série D
	13:  seasonCalendarYear, // Libertadores
	11:  seasonCalendarYear, // Sudamericana
	39:  seasonSpanning,     // Premier League
	140: seasonSpanning,     // La Liga
	78:  seasonSpanning,     // Bundesliga
	135: seasonSpanning,     // Serie A (Italy)
	61:  seasonSpanning,     // Ligue 1
	2:   seasonSpanning,     // Champions League
}

// ResolveSeason returns the season to query first and the one to fall
// back to when the primary returns no data. Calendar-year leagues pin
// to the reference year so free API tiers with historical data only
// keep working. Spanning leagues roll over in August.
func ResolveSeason(leagueID int64, now time.Time, referenceYear int) (primary, fallback int) {
	rule, known := seasonRules[leagueID]
	if !known {
		rule = seasonCalendarYear
	}

	switch rule {
	case seasonSpanning:
		year := now.UTC().Year()
		if now.UTC().Month() >= time.August {
			return year, year - 1
		}
		return year - 1, year - 2
	default:
		if known && referenceYear > 0 {
			return referenceYear, referenceYear - 1
		}
		year := now.UTC().Year()
		return year, year - 1
	}
}
