package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
)

// dateLayouts em ordem de tentativa; o primeiro que casar vence.
// Formatos numéricos ambíguos são lidos como mês/dia (padrão dos exports americanos).
var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05 -0700",
	"2006/1/2",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/06",
	"1-2-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon, Jan 2, 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate tenta os layouts conhecidos e devolve YYYY-MM-DD.
// A data é a do calendário escrito na célula, sem conversão de fuso.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(repo.DateFormat), true
		}
	}
	return "", false
}

// ParseNumber lê valores monetários de planilha: remove símbolos de moeda, separador de milhar
// e espaços; "(12.50)" vale -12.50. Qualquer sobra não numérica invalida o campo.
func ParseNumber(s string) (float64, bool) {
	d, ok := parseDecimal(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), r == ',', unicode.Is(unicode.Sc, r):
			continue
		case r == '−': // sinal de menos tipográfico
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	clean := strings.TrimPrefix(b.String(), "+")
	if clean == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseOdds lê odds americanas: inteiro com sinal, diferente de zero. "EVEN"/"EV" vale +100.
func ParseOdds(s string) (int, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EVEN", "EV", "EVENS":
		return 100, true
	}
	d, ok := parseDecimal(s)
	if !ok || !d.IsInteger() || d.IsZero() {
		return 0, false
	}
	return int(d.IntPart()), true
}

var resultSynonyms = map[string]repo.Result{
	"win": repo.ResultWin, "won": repo.ResultWin, "w": repo.ResultWin, "winner": repo.ResultWin, "hit": repo.ResultWin,
	"loss": repo.ResultLoss, "lost": repo.ResultLoss, "l": repo.ResultLoss, "loser": repo.ResultLoss, "miss": repo.ResultLoss,
	"lose": repo.ResultLoss,
	"push": repo.ResultPush, "tie": repo.ResultPush, "draw": repo.ResultPush, "refund": repo.ResultPush,
	"void": repo.ResultPush, "cancelled": repo.ResultPush, "canceled": repo.ResultPush,
	"pending": repo.ResultPending, "open": repo.ResultPending, "unsettled": repo.ResultPending, "active": repo.ResultPending,
}

// ParseResult traduz os sinônimos de planilha; ok=false quando não reconhece
func ParseResult(s string) (repo.Result, bool) {
	r, ok := resultSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// Visibility resolve o tier por precedência: coluna explícita, depois palavras-chave em tags,
// depois STAFF. defaulted indica que nenhuma das fontes decidiu.
func Visibility(explicit, tags string) (tier repo.Tier, defaulted bool) {
	if t, err := repo.ParseTier(explicit); err == nil {
		return t, false
	}
	lt := strings.ToLower(tags)
	for _, kw := range []string{"free", "public", "shared"} {
		if strings.Contains(lt, kw) {
			return repo.TierFree, false
		}
	}
	for _, kw := range []string{"premium", "vip"} {
		if strings.Contains(lt, kw) {
			return repo.TierPremium, false
		}
	}
	return repo.TierStaff, true
}
