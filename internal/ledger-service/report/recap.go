package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/stats"
)

// Record formata o placar: "3W-1L-1P", omitindo as partes zeradas; "0-0" sem apostas encerradas
func Record(wins, losses, pushes int) string {
	var parts []string
	if wins > 0 {
		parts = append(parts, fmt.Sprintf("%dW", wins))
	}
	if losses > 0 {
		parts = append(parts, fmt.Sprintf("%dL", losses))
	}
	if pushes > 0 {
		parts = append(parts, fmt.Sprintf("%dP", pushes))
	}
	if len(parts) == 0 {
		return "0-0"
	}
	return strings.Join(parts, "-")
}

// WinRate em percentual inteiro, ou "N/A" sem apostas decididas
func WinRate(s stats.Summary) string {
	r, ok := s.WinRate()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(r)))
}

// Units formata o lucro em unidades sempre com sinal
func Units(v float64) string { return fmt.Sprintf("%+.2fu", v) }

// Markdown renderiza o recap usado no CLI e no evento recap_ready
func Markdown(r *Report) string {
	var b strings.Builder

	switch r.Range {
	case RangeDay:
		fmt.Fprintf(&b, "# %s Recap: %s\n\n", r.Range.Title(), r.Date)
	case RangeAll:
		fmt.Fprintf(&b, "# %s Recap (through %s)\n\n", r.Range.Title(), r.Date)
	default:
		fmt.Fprintf(&b, "# %s Recap: %s to %s\n\n", r.Range.Title(), r.From, r.To)
	}

	fmt.Fprintf(&b, "- **Record:** %s\n", Record(r.Wins, r.Losses, r.Pushes))
	fmt.Fprintf(&b, "- **Win rate:** %s\n", WinRate(r.Summary))
	fmt.Fprintf(&b, "- **Units:** %s\n", Units(r.TotalProfit))
	fmt.Fprintf(&b, "- **ROI:** %+.1f%%\n", r.ROI)
	if r.Pending > 0 {
		fmt.Fprintf(&b, "- **Pending:** %d\n", r.Pending)
	}

	writeGroups(&b, "By sport", "Sport", r.BySport)
	writeGroups(&b, "By market", "Market", r.ByMarket)
	return b.String()
}

func writeGroups(b *strings.Builder, title, column string, groups []stats.Group) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	fmt.Fprintf(b, "| %s | Record | Units |\n", column)
	b.WriteString("|---|---|---|\n")
	for _, g := range groups {
		fmt.Fprintf(b, "| %s | %s | %s |\n", escapeCell(g.Name), Record(g.Wins, g.Losses, g.Pushes), Units(g.Profit))
	}
}

func escapeCell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }
