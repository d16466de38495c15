package cache

import "time"

// Kind names a class of cached payloads with a shared freshness policy.
type Kind string

const (
	KindFixturesLive  Kind = "fixtures_live"
	KindFixturesToday Kind = "fixtures_today"
	KindTeams         Kind = "teams"
	KindLeagues       Kind = "leagues"
	KindStandings     Kind = "standings"
	KindOddsPrematch  Kind = "odds_prematch"
	KindTopScorers    Kind = "top_scorers"
	KindTopCards      Kind = "top_cards"
)

type Policy struct {
	TTL      time.Duration
	Priority Priority
}

var policies = map[Kind]Policy{
	KindFixturesLive:  {TTL: 30 * time.Second, Priority: PriorityHigh},
	KindFixturesToday: {TTL: 2 * time.Minute, Priority: PriorityHigh},
	KindTeams:         {TTL: time.Hour, Priority: PriorityMedium},
	KindLeagues:       {TTL: 24 * time.Hour, Priority: PriorityLow},
	KindStandings:     {TTL: 30 * time.Minute, Priority: PriorityLow},
	KindOddsPrematch:  {TTL: 5 * time.Minute, Priority: PriorityMedium},
	KindTopScorers:    {TTL: 10 * time.Minute, Priority: PriorityMedium},
	KindTopCards:      {TTL: 15 * time.Minute, Priority: PriorityLow},
}

// PolicyFor returns the freshness policy for a payload kind. Unknown
// kinds get a conservative five minute medium-priority policy.
func PolicyFor(kind Kind) Policy {
	if p, ok := policies[kind]; ok {
		return p
	}
	return Policy{TTL: 5 * time.Minute, Priority: PriorityMedium}
}
