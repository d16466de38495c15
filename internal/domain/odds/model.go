package odds

import "strings"

// MarketMatchWinner is the market widgets read 1X2 prices from.
const MarketMatchWinner = "Match Winner"

// MarketOverUnder is the totals market label. Providers prefix it
// ("Goals Over/Under"), so lookup matches by suffix.
const MarketOverUnder = "Over/Under"

// Odds carries the bookmaker prices offered for one fixture.
type Odds struct {
	FixtureID  int64       `json:"fixtureId"`
	LeagueID   int64       `json:"leagueId,omitempty"`
	UpdatedAt  string      `json:"updatedAt,omitempty"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Markets []Market `json:"markets"`
}

type Market struct {
	ID     int64   `json:"id,omitempty"`
	Name   string  `json:"name"`
	Quotes []Quote `json:"quotes"`
}

type Quote struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// MatchWinner returns the first Match Winner market found across
// bookmakers, or false when no bookmaker quotes it.
func (o Odds) MatchWinner() (Market, bool) {
	for _, bk := range o.Bookmakers {
		for _, m := range bk.Markets {
			if m.Name == MarketMatchWinner {
				return m, true
			}
		}
	}
	return Market{}, false
}

// OverUnder returns the first totals market found across bookmakers,
// or false when no bookmaker quotes one.
func (o Odds) OverUnder() (Market, bool) {
	for _, bk := range o.Bookmakers {
		for _, m := range bk.Markets {
			if strings.HasSuffix(m.Name, MarketOverUnder) {
				return m, true
			}
		}
	}
	return Market{}, false
}

// Quote returns the price quoted for a label, e.g. "Home" or "Draw".
func (m Market) Quote(label string) (float64, bool) {
	for _, q := range m.Quotes {
		if q.Label == label {
			return q.Price, true
		}
	}
	return 0, false
}
