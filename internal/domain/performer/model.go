package performer

// StatKind identifies which player ranking a value belongs to.
type StatKind string

const (
	StatGoals       StatKind = "goals"
	StatYellowCards StatKind = "yellow_cards"
	StatRedCards    StatKind = "red_cards"
)

// Cap is the stat value treated as a perfect score for the kind.
func (k StatKind) Cap() int {
	switch k {
	case StatGoals:
		return 20
	case StatYellowCards:
		return 10
	case StatRedCards:
		return 5
	default:
		return 1
	}
}

// Score normalizes a raw stat value into 0..100 against the kind cap.
func Score(kind StatKind, value int) float64 {
	if value <= 0 {
		return 0
	}
	ratio := float64(value) / float64(kind.Cap())
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// Performer is one row of a player ranking (top scorers or cards).
type Performer struct {
	PlayerID int64    `json:"playerId"`
	Name     string   `json:"name"`
	PhotoURL string   `json:"photoUrl,omitempty"`
	Team     string   `json:"team"`
	TeamLogo string   `json:"teamLogo,omitempty"`
	Stat     StatKind `json:"stat"`
	Value    int      `json:"value"`
	Score    float64  `json:"score"`
	Games    int      `json:"games,omitempty"`
}
