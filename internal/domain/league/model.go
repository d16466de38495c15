package league

import "fmt"

// Brazilian league identifiers used as defaults across the service.
const (
	SerieAID       int64 = 71
	SerieBID       int64 = 72
	CopaDoBrasilID int64 = 73
	SerieCID       int64 = 75
	LibertadoresID int64 = 13
)

// League is a competition exposed by the data proxy.
type League struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Country   string `json:"country"`
	FlagURL   string `json:"flagUrl,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
	Season    int    `json:"season"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	IsCurrent bool   `json:"isCurrent"`
}

func (l League) Validate() error {
	if l.ID == 0 {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}

	return nil
}
