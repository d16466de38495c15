package team

import "fmt"

// Team is a football club as surfaced by the data proxy.
type Team struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Short   string `json:"short,omitempty"`
	Country string `json:"country,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
	Founded int    `json:"founded,omitempty"`
	Venue   *Venue `json:"venue,omitempty"`
	Winner  *bool  `json:"winner,omitempty"`
}

type Venue struct {
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

func (t Team) Validate() error {
	if t.ID == 0 {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
