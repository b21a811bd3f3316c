package events

import "time"

// Evento emitido pelo ledger-service ao final de cada import de CSV.
type BetImported struct {
	ImportID   string    `json:"importId"`
	Parsed     int       `json:"parsed"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Tier       string    `json:"tier"` // tier default aplicado às linhas sem visibilidade explícita
	Ts         time.Time `json:"ts"`
}
