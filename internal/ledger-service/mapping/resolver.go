// Package mapping resolve quais headers de um CSV externo alimentam cada campo canônico da aposta.
package mapping

import (
	"strings"
	"unicode"
)

// Campos canônicos do import
const (
	FieldPlacedAt   = "placed_at"
	FieldSettledAt  = "settled_at"
	FieldGameDate   = "game_date"
	FieldSport      = "sport"
	FieldLeague     = "league"
	FieldMarket     = "market"
	FieldPick       = "pick"
	FieldOdds       = "odds"
	FieldStake      = "stake"
	FieldPayout     = "payout"
	FieldProfit     = "profit"
	FieldResult     = "result"
	FieldBook       = "book"
	FieldTags       = "tags"
	FieldVisibility = "visibility"
)

// Fields lista os campos na ordem em que são resolvidos e exibidos
var Fields = []string{
	FieldPlacedAt, FieldSettledAt, FieldGameDate, FieldSport, FieldLeague, FieldMarket, FieldPick,
	FieldOdds, FieldStake, FieldPayout, FieldProfit, FieldResult, FieldBook, FieldTags, FieldVisibility,
}

// Required são os campos cuja ausência vira aviso de import parcial
var Required = []string{FieldPick, FieldOdds, FieldStake, FieldResult}

// synonyms em ordem de prioridade, já normalizados
var synonyms = map[string][]string{
	FieldPlacedAt:   {"placed_at", "date_placed", "placed", "bet_date", "date", "created_at", "time_placed"},
	FieldSettledAt:  {"settled_at", "date_settled", "settled", "settlement_date", "graded_at", "closed_at"},
	FieldGameDate:   {"game_date", "event_date", "start_time", "game_time", "event_start"},
	FieldSport:      {"sport", "sports", "sport_name"},
	FieldLeague:     {"league", "competition", "league_name"},
	FieldMarket:     {"market", "bet_type", "market_type", "type", "wager_type", "category"},
	FieldPick:       {"pick", "selection", "bet", "description", "bet_description", "play", "wager"},
	FieldOdds:       {"odds", "american_odds", "price", "line_odds", "odds_american"},
	FieldStake:      {"stake", "units", "risk", "wager_amount", "bet_amount", "amount"},
	FieldPayout:     {"payout", "to_win", "return", "potential_payout", "payout_amount"},
	FieldProfit:     {"profit", "net", "pnl", "p_l", "net_profit", "units_won", "result_units"},
	FieldResult:     {"result", "status", "outcome", "grade", "bet_result"},
	FieldBook:       {"book", "sportsbook", "bookmaker", "sports_book"},
	FieldTags:       {"tags", "tag", "labels", "label"},
	FieldVisibility: {"visibility", "tier", "access"},
}

// Synonyms devolve a lista de sinônimos do campo (cópia)
func Synonyms(field string) []string {
	return append([]string(nil), synonyms[field]...)
}

// NormalizeHeader deixa o header em minúsculas e troca tudo que não for letra, dígito ou '_' por '_'
func NormalizeHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// Mapping é o resultado: campo canônico -> header original do CSV
type Mapping map[string]string

// Header devolve o header do campo e se ele foi mapeado
func (m Mapping) Header(field string) (string, bool) {
	h, ok := m[field]
	return h, ok
}

// Value lê o valor do campo numa linha já parseada (header -> valor)
func (m Mapping) Value(row map[string]string, field string) string {
	h, ok := m[field]
	if !ok {
		return ""
	}
	return row[h]
}

// Missing lista os campos obrigatórios sem header resolvido
func (m Mapping) Missing() []string {
	var out []string
	for _, f := range Required {
		if _, ok := m[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Resolve mapeia cada campo canônico para um header:
// override normalizado primeiro, depois sinônimos em ordem. A comparação é pelo token
// normalizado inteiro, nunca por substring.
func Resolve(headers []string, overrides map[string]string) Mapping {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		n := NormalizeHeader(h)
		if _, seen := normalized[n]; !seen {
			normalized[n] = h
		}
	}

	out := make(Mapping)
	for _, field := range Fields {
		if o, ok := overrides[field]; ok && o != "" {
			if h, ok := normalized[NormalizeHeader(o)]; ok {
				out[field] = h
				continue
			}
		}
		for _, syn := range synonyms[field] {
			if h, ok := normalized[syn]; ok {
				out[field] = h
				break
			}
		}
	}
	return out
}

// IsField diz se o nome é um campo canônico conhecido
func IsField(name string) bool {
	_, ok := synonyms[name]
	return ok
}
