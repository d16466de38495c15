// Package staticdata carries the built-in Brazilian reference data the
// service falls back to when the provider returns nothing usable.
package staticdata

import (
	"github.com/betania/sportsync/internal/domain/league"
	"github.com/betania/sportsync/internal/domain/team"
)

func Leagues() []league.League {
	return []league.League{
		{ID: league.SerieAID, Name: "Série A", Type: "League", Country: "Brazil", Season: 2024, IsCurrent: true},
		{ID: league.SerieBID, Name: "Série B", Type: "League", Country: "Brazil", Season: 2024, IsCurrent: true},
		{ID: league.CopaDoBrasilID, Name: "Copa do Brasil", Type: "Cup", Country: "Brazil", Season: 2024, IsCurrent: true},
		{ID: league.LibertadoresID, Name: "CONMEBOL Libertadores", Type: "Cup", Country: "South America", Season: 2024, IsCurrent: true},
	}
}

func Teams() []team.Team {
	return []team.Team{
		{ID: 119, Name: "Palmeiras", Short: "PAL", Country: "Brazil", Venue: &team.Venue{Name: "Allianz Parque", City: "São Paulo", Capacity: 43713}},
		{ID: 127, Name: "Flamengo", Short: "FLA", Country: "Brazil", Venue: &team.Venue{Name: "Maracanã", City: "Rio de Janeiro", Capacity: 78838}},
		{ID: 124, Name: "São Paulo", Short: "SAO", Country: "Brazil", Venue: &team.Venue{Name: "MorumBIS", City: "São Paulo", Capacity: 66795}},
		{ID: 126, Name: "Santos", Short: "SAN", Country: "Brazil", Venue: &team.Venue{Name: "Vila Belmiro", City: "Santos", Capacity: 16068}},
		{ID: 123, Name: "Corinthians", Short: "COR", Country: "Brazil", Venue: &team.Venue{Name: "Neo Química Arena", City: "São Paulo", Capacity: 49205}},
		{ID: 118, Name: "Bahia", Short: "BAH", Country: "Brazil", Venue: &team.Venue{Name: "Arena Fonte Nova", City: "Salvador", Capacity: 50025}},
		{ID: 121, Name: "Grêmio", Short: "GRE", Country: "Brazil", Venue: &team.Venue{Name: "Arena do Grêmio", City: "Porto Alegre", Capacity: 55662}},
		{ID: 130, Name: "Internacional", Short: "INT", Country: "Brazil", Venue: &team.Venue{Name: "Beira-Rio", City: "Porto Alegre", Capacity: 50842}},
	}
}
