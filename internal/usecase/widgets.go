package usecase

import (
	"fmt"
	"sort"

	"github.com/betania/sportsync/internal/domain/fixture"
	"github.com/betania/sportsync/internal/domain/odds"
	"github.com/betania/sportsync/internal/domain/performer"
)

const (
	hotOddsMinPrice       = 1.5
	hotOddsMaxPrice       = 5.0
	hotOddsTotalsMaxPrice = 4.0
	hotOddsHotCeil        = 4.0
	hotOddsLimit          = 5
	topPerformersN        = 10
)

// LiveGame is the widget projection of an in-play fixture.
type LiveGame struct {
	FixtureID int64  `json:"fixtureId"`
	League    string `json:"league"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`
	Minute    int    `json:"minute"`
	Status    string `json:"status"`
}

// LiveGames projects the in-play fixtures out of a snapshot. Missing
// goal counts render as zero, matching a match that just kicked off.
func LiveGames(fixtures []fixture.Fixture) []LiveGame {
	out := make([]LiveGame, 0)
	for _, f := range fixtures {
		if !f.IsLive() {
			continue
		}
		game := LiveGame{
			FixtureID: f.ID,
			League:    f.LeagueName,
			Home:      f.Home.Name,
			Away:      f.Away.Name,
			Status:    f.Status.Code,
		}
		if f.HomeGoals != nil {
			game.HomeGoals = *f.HomeGoals
		}
		if f.AwayGoals != nil {
			game.AwayGoals = *f.AwayGoals
		}
		if f.Status.Elapsed != nil {
			game.Minute = *f.Status.Elapsed
		}
		out = append(out, game)
	}
	return out
}

// HotOdd is one interesting price from the win or totals markets.
// Change is reserved for a price-movement feed and stays zero until
// one exists.
type HotOdd struct {
	FixtureID int64   `json:"fixtureId"`
	Match     string  `json:"match"`
	Market    string  `json:"market"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	IsHot     bool    `json:"isHot"`
}

// HotOdds picks quotes inside the interesting price bands, Match
// Winner up to 5.0 and totals up to 4.0, cheapest first, capped to a
// handful of entries.
func HotOdds(oddsList []odds.Odds, fixtures []fixture.Fixture) []HotOdd {
	names := make(map[int64]string, len(fixtures))
	for _, f := range fixtures {
		names[f.ID] = fmt.Sprintf("%s x %s", f.Home.Name, f.Away.Name)
	}

	out := make([]HotOdd, 0)
	for _, o := range oddsList {
		match := names[o.FixtureID]
		if match == "" {
			continue
		}
		if market, ok := o.MatchWinner(); ok {
			out = appendBandQuotes(out, o.FixtureID, match, market, hotOddsMaxPrice)
		}
		if market, ok := o.OverUnder(); ok {
			out = appendBandQuotes(out, o.FixtureID, match, market, hotOddsTotalsMaxPrice)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	if len(out) > hotOddsLimit {
		out = out[:hotOddsLimit]
	}
	return out
}

func appendBandQuotes(out []HotOdd, fixtureID int64, match string, market odds.Market, maxPrice float64) []HotOdd {
	for _, quote := range market.Quotes {
		if quote.Price < hotOddsMinPrice || quote.Price > maxPrice {
			continue
		}
		out = append(out, HotOdd{
			FixtureID: fixtureID,
			Match:     match,
			Market:    market.Name,
			Label:     quote.Label,
			Price:     quote.Price,
			IsHot:     quote.Price <= hotOddsHotCeil,
		})
	}
	return out
}

// TopPerformers sorts a ranking by raw stat value, best first, and
// keeps the top ten.
func TopPerformers(list []performer.Performer) []performer.Performer {
	out := make([]performer.Performer, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > topPerformersN {
		out = out[:topPerformersN]
	}
	return out
}
