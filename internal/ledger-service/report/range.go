package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
)

// Range é a janela do relatório, sempre terminando na data de referência
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// ParseRange aceita day|week|month|all (vazio = day)
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeDay, nil
	case RangeDay, RangeWeek, RangeMonth, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("invalid range %q: want day, week, month or all", s)
}

// Bounds devolve [from, to] em YYYY-MM-DD; "all" é aberto dos dois lados
func (r Range) Bounds(end time.Time) (from, to string) {
	to = end.Format(repo.DateFormat)
	switch r {
	case RangeDay:
		return to, to
	case RangeWeek:
		return end.AddDate(0, 0, -6).Format(repo.DateFormat), to
	case RangeMonth:
		return end.AddDate(0, 0, -29).Format(repo.DateFormat), to
	}
	return "", ""
}

// Title é o rótulo humano da janela
func (r Range) Title() string {
	switch r {
	case RangeWeek:
		return "Weekly"
	case RangeMonth:
		return "Monthly"
	case RangeAll:
		return "All-time"
	}
	return "Daily"
}
