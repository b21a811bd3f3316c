package dto

type GradeRequest struct {
	Result    string `json:"result"` // WIN | LOSS | PUSH | VOID
	Odds      *int   `json:"odds,omitempty"`
	SettledAt string `json:"settledAt,omitempty"` // YYYY-MM-DD; default = hoje
}

type VisibilityRequest struct {
	Tier string `json:"tier"` // FREE | PREMIUM | STAFF
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type MappingRequest struct {
	Header string `json:"header"`
}

// LogBetRequest é o lançamento manual (nasce PENDING)
type LogBetRequest struct {
	Pick       string  `json:"pick"`
	Odds       int     `json:"odds"`
	Stake      float64 `json:"stake"`
	Sport      string  `json:"sport,omitempty"`
	League     string  `json:"league,omitempty"`
	Market     string  `json:"market,omitempty"`
	Book       string  `json:"book,omitempty"`
	Tags       string  `json:"tags,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	PlacedAt   string  `json:"placedAt,omitempty"`
	GameDate   string  `json:"gameDate,omitempty"`
	Visibility string  `json:"visibility,omitempty"`
	CreatedBy  string  `json:"createdBy,omitempty"`
}
