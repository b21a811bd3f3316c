package repo

import (
	"context"
	"fmt"
	"strings"
)

// Dialect isola as poucas diferenças entre SQLite e Postgres
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// rebind troca os placeholders '?' por $1..$n no Postgres
func (d Dialect) rebind(q string) string {
	if d != DialectPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() []string {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	if d == DialectPostgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS bets (
			` + idCol + `,
			hash        TEXT NOT NULL UNIQUE,
			source      TEXT NOT NULL,
			created_by  TEXT NOT NULL DEFAULT '',
			placed_at   TEXT,
			settled_at  TEXT,
			game_date   TEXT,
			sport       TEXT NOT NULL DEFAULT '',
			league      TEXT NOT NULL DEFAULT '',
			market      TEXT NOT NULL DEFAULT '',
			pick        TEXT NOT NULL,
			odds        INTEGER,
			stake       ` + realType + ` NOT NULL,
			payout      ` + realType + `,
			profit      ` + realType + `,
			result      TEXT NOT NULL,
			visibility  TEXT NOT NULL,
			book        TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '',
			notes       TEXT NOT NULL DEFAULT '',
			raw_source  TEXT NOT NULL DEFAULT '',
			created_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_placed_at ON bets (placed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_settled_at ON bets (settled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_result ON bets (result)`,
		`CREATE TABLE IF NOT EXISTS column_mappings (
			field   TEXT PRIMARY KEY,
			header  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key    TEXT PRIMARY KEY,
			value  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recap_posts (
			recap_date  TEXT PRIMARY KEY,
			posted_at   BIGINT NOT NULL
		)`,
	}
}

// Migrate cria as tabelas se ainda não existirem
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
