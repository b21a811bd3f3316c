package events

import "time"

// Evento consumido pelos publishers externos (social, chat) para postar o recap diário.
type RecapReady struct {
	Date     string    `json:"date"` // YYYY-MM-DD
	Tier     string    `json:"tier"`
	Range    string    `json:"range"`
	Wins     int       `json:"wins"`
	Losses   int       `json:"losses"`
	Pushes   int       `json:"pushes"`
	Pending  int       `json:"pending"`
	Profit   float64   `json:"profit"`
	ROI      float64   `json:"roi"`
	Markdown string    `json:"markdown"`
	Ts       time.Time `json:"ts"`
}
