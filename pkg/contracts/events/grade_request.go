package events

// Comando de grading publicado pelos adapters no tópico "grade_requests".
type GradeRequest struct {
	BetID     int64  `json:"betId"`
	Result    string `json:"result"`
	Odds      *int   `json:"odds,omitempty"`      // override das odds registradas
	SettledAt string `json:"settledAt,omitempty"` // YYYY-MM-DD; default = hoje
	Actor     string `json:"actor,omitempty"`
}
