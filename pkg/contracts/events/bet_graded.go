package events

import "time"

// Evento publicado após uma aposta sair de PENDING para um resultado terminal.
type BetGraded struct {
	BetID      int64     `json:"betId"`
	Result     string    `json:"result"` // "WIN" | "LOSS" | "PUSH" | "VOID"
	Profit     float64   `json:"profit"`
	SettledAt  string    `json:"settledAt"` // YYYY-MM-DD
	Visibility string    `json:"visibility"`
	Ts         time.Time `json:"ts"`
}
