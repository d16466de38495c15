package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/domain/fixture"
	"github.com/betania/sportsync/internal/domain/league"
	"github.com/betania/sportsync/internal/domain/odds"
	"github.com/betania/sportsync/internal/domain/performer"
	"github.com/betania/sportsync/internal/domain/team"
	sonic "github.com/bytedance/sonic"
)

// FetchResult is one proxied provider response: the raw record array
// plus whether the proxy served it from its own edge cache.
type FetchResult struct {
	Data   json.RawMessage
	Cached bool
}

// DataProvider issues one proxied provider call. The scheduler adapter
// is the production implementation.
type DataProvider interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string, priority cache.Priority) (FetchResult, error)
}

// Provider record shapes. Every payload is an array of records; each
// record nests the entity under provider-specific envelopes.

type externalFixture struct {
	Fixture struct {
		ID      int64  `json:"id"`
		Date    string `json:"date"`
		Referee string `json:"referee"`
		Venue   struct {
			Name string `json:"name"`
		} `json:"venue"`
		Status struct {
			Short   string `json:"short"`
			Long    string `json:"long"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Season  int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home externalFixtureTeam `json:"home"`
		Away externalFixtureTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type externalFixtureTeam struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Winner *bool  `json:"winner"`
}

type externalLeague struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Logo string `json:"logo"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
		Flag string `json:"flag"`
	} `json:"country"`
	Seasons []struct {
		Year    int    `json:"year"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Current bool   `json:"current"`
	} `json:"seasons"`
}

type externalTeam struct {
	Team struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Founded int    `json:"founded"`
		Logo    string `json:"logo"`
	} `json:"team"`
	Venue struct {
		Name     string `json:"name"`
		City     string `json:"city"`
		Capacity int    `json:"capacity"`
	} `json:"venue"`
}

type externalOdds struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	League struct {
		ID int64 `json:"id"`
	} `json:"league"`
	Update     string `json:"update"`
	Bookmakers []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Bets []struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

type externalPlayer struct {
	Player struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Photo string `json:"photo"`
	} `json:"player"`
	Statistics []struct {
		Team struct {
			Name string `json:"name"`
			Logo string `json:"logo"`
		} `json:"team"`
		Games struct {
			Appearances int `json:"appearences"`
		} `json:"games"`
		Goals struct {
			Total *int `json:"total"`
		} `json:"goals"`
		Cards struct {
			Yellow int `json:"yellow"`
			Red    int `json:"red"`
		} `json:"cards"`
	} `json:"statistics"`
}

// decodeRecords rejects payloads that are not a JSON array. A slot that
// fails here is treated as empty rather than poisoning the snapshot.
func decodeRecords[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var records []T
	if err := sonic.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: expected record array: %v", ErrMalformedPayload, err)
	}
	return records, nil
}

func mapExternalFixture(item externalFixture) (fixture.Fixture, bool) {
	if item.Fixture.ID <= 0 {
		return fixture.Fixture{}, false
	}

	out := fixture.Fixture{
		ID:         item.Fixture.ID,
		LeagueID:   item.League.ID,
		LeagueName: strings.TrimSpace(item.League.Name),
		Country:    strings.TrimSpace(item.League.Country),
		Season:     item.League.Season,
		Venue:      strings.TrimSpace(item.Fixture.Venue.Name),
		Referee:    strings.TrimSpace(item.Fixture.Referee),
		Status: fixture.Status{
			Code:    strings.TrimSpace(item.Fixture.Status.Short),
			Long:    strings.TrimSpace(item.Fixture.Status.Long),
			Elapsed: item.Fixture.Status.Elapsed,
		},
		Home: team.Team{
			ID:      item.Teams.Home.ID,
			Name:    strings.TrimSpace(item.Teams.Home.Name),
			LogoURL: item.Teams.Home.Logo,
			Winner:  item.Teams.Home.Winner,
		},
		Away: team.Team{
			ID:      item.Teams.Away.ID,
			Name:    strings.TrimSpace(item.Teams.Away.Name),
			LogoURL: item.Teams.Away.Logo,
			Winner:  item.Teams.Away.Winner,
		},
	}

	if parsed := parseProviderDateTime(item.Fixture.Date); parsed != nil {
		out.KickoffAt = *parsed
	}
	if fixture.HasScore(out.Status.Code) {
		out.HomeGoals = item.Goals.Home
		out.AwayGoals = item.Goals.Away
	}

	return out, true
}

func mapExternalLeague(item externalLeague) (league.League, bool) {
	if item.League.ID <= 0 {
		return league.League{}, false
	}

	out := league.League{
		ID:      item.League.ID,
		Name:    strings.TrimSpace(item.League.Name),
		Type:    strings.TrimSpace(item.League.Type),
		Country: strings.TrimSpace(item.Country.Name),
		FlagURL: item.Country.Flag,
		LogoURL: item.League.Logo,
	}

	for _, season := range item.Seasons {
		if season.Current || out.Season == 0 {
			out.Season = season.Year
			out.StartDate = season.Start
			out.EndDate = season.End
			out.IsCurrent = season.Current
		}
		if season.Current {
			break
		}
	}

	return out, true
}

func mapExternalTeam(item externalTeam) (team.Team, bool) {
	if item.Team.ID <= 0 {
		return team.Team{}, false
	}

	out := team.Team{
		ID:      item.Team.ID,
		Name:    strings.TrimSpace(item.Team.Name),
		Short:   strings.TrimSpace(item.Team.Code),
		Country: strings.TrimSpace(item.Team.Country),
		LogoURL: item.Team.Logo,
		Founded: item.Team.Founded,
	}
	if item.Venue.Name != "" {
		out.Venue = &team.Venue{
			Name:     strings.TrimSpace(item.Venue.Name),
			City:     strings.TrimSpace(item.Venue.City),
			Capacity: item.Venue.Capacity,
		}
	}

	return out, true
}

func mapExternalOdds(item externalOdds) (odds.Odds, bool) {
	if item.Fixture.ID <= 0 {
		return odds.Odds{}, false
	}

	out := odds.Odds{
		FixtureID: item.Fixture.ID,
		LeagueID:  item.League.ID,
		UpdatedAt: item.Update,
	}
	for _, bk := range item.Bookmakers {
		mapped := odds.Bookmaker{ID: bk.ID, Name: strings.TrimSpace(bk.Name)}
		for _, bet := range bk.Bets {
			market := odds.Market{ID: bet.ID, Name: strings.TrimSpace(bet.Name)}
			for _, value := range bet.Values {
				price, err := strconv.ParseFloat(strings.TrimSpace(value.Odd), 64)
				if err != nil || price <= 0 {
					continue
				}
				market.Quotes = append(market.Quotes, odds.Quote{
					Label: strings.TrimSpace(value.Value),
					Price: price,
				})
			}
			if len(market.Quotes) > 0 {
				mapped.Markets = append(mapped.Markets, market)
			}
		}
		if len(mapped.Markets) > 0 {
			out.Bookmakers = append(out.Bookmakers, mapped)
		}
	}

	return out, true
}

func mapExternalPlayer(item externalPlayer, kind performer.StatKind) (performer.Performer, bool) {
	if item.Player.ID <= 0 || len(item.Statistics) == 0 {
		return performer.Performer{}, false
	}

	stats := item.Statistics[0]
	value := 0
	switch kind {
	case performer.StatGoals:
		if stats.Goals.Total != nil {
			value = *stats.Goals.Total
		}
	case performer.StatYellowCards:
		value = stats.Cards.Yellow
	case performer.StatRedCards:
		value = stats.Cards.Red
	}

	return performer.Performer{
		PlayerID: item.Player.ID,
		Name:     strings.TrimSpace(item.Player.Name),
		PhotoURL: item.Player.Photo,
		Team:     strings.TrimSpace(stats.Team.Name),
		TeamLogo: stats.Team.Logo,
		Stat:     kind,
		Value:    value,
		Score:    performer.Score(kind, value),
		Games:    stats.Games.Appearances,
	}, true
}
