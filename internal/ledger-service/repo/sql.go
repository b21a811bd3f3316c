package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLStore implementa o ledger sobre database/sql (SQLite embutido ou Postgres)
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore retorna uma instância do repositório de apostas
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

const betColumns = `id, hash, source, created_by, placed_at, settled_at, game_date, sport, league, market,
	pick, odds, stake, payout, profit, result, visibility, book, tags, notes, raw_source, created_at`

const insertBet = `
	INSERT INTO bets (hash, source, created_by, placed_at, settled_at, game_date, sport, league, market,
		pick, odds, stake, payout, profit, result, visibility, book, tags, notes, raw_source, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT (hash) DO NOTHING
	RETURNING id`

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) insertArgs(b *Bet) []any {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	return []any{
		b.Hash, string(b.Source), b.CreatedBy,
		nullStr(b.PlacedAt), nullStr(b.SettledAt), nullStr(b.GameDate),
		b.Sport, b.League, b.Market,
		b.Pick, nullInt(b.Odds), b.Stake, nullFloat(b.Payout), nullFloat(b.Profit),
		string(b.Result), string(b.Visibility),
		b.Book, b.Tags, b.Notes, b.RawSource,
		b.CreatedAt.UnixMilli(),
	}
}

// Insert insere uma aposta; hash repetido devolve ErrDuplicateHash
func (s *SQLStore) Insert(ctx context.Context, b *Bet) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(insertBet), s.insertArgs(b)...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateHash
	}
	if err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}
	b.ID = id
	return id, nil
}

// BulkInsert insere todas as apostas numa transação.
// Conflito de hash não aborta: a linha é pulada e contada como duplicada.
func (s *SQLStore) BulkInsert(ctx context.Context, bets []Bet) (BulkResult, error) {
	var res BulkResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(insertBet))
	if err != nil {
		return res, fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for i := range bets {
		var id int64
		err := stmt.QueryRowContext(ctx, s.insertArgs(&bets[i])...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			res.Duplicates++
			continue
		}
		if err != nil {
			return BulkResult{}, fmt.Errorf("bulk insert row %d: %w", i, err)
		}
		bets[i].ID = id
		res.Inserted++
		res.IDs = append(res.IDs, id)
	}

	if err := tx.Commit(); err != nil {
		return BulkResult{}, fmt.Errorf("commit bulk insert: %w", err)
	}
	return res, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Bet, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+betColumns+` FROM bets WHERE id = ?`), id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bet %d: %w", id, err)
	}
	return b, nil
}

// Settle grava o desfecho com guarda em result = 'PENDING'.
// Zero linhas afetadas significa aposta inexistente ou já graduada.
func (s *SQLStore) Settle(ctx context.Context, id int64, st Settlement) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		UPDATE bets
		SET result = ?, odds = ?, profit = ?, payout = ?, settled_at = ?
		WHERE id = ? AND result = 'PENDING'`),
		string(st.Result), nullInt(st.Odds), st.Profit, nullFloat(st.Payout), nullStr(st.SettledAt), id,
	)
	if err != nil {
		return fmt.Errorf("settle bet %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle bet %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyGraded
}

func (s *SQLStore) UpdateVisibility(ctx context.Context, id int64, tier Tier) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE bets SET visibility = ? WHERE id = ?`), string(tier), id)
	if err != nil {
		return fmt.Errorf("update visibility %d: %w", id, err)
	}
	return expectOne(res)
}

func (s *SQLStore) BulkUpdateVisibilityByDate(ctx context.Context, date string, tier Tier) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		UPDATE bets SET visibility = ?
		WHERE COALESCE(placed_at, settled_at) = ?`), string(tier), date)
	if err != nil {
		return 0, fmt.Errorf("bulk update visibility %s: %w", date, err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) UpdateNotes(ctx context.Context, id int64, notes string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE bets SET notes = ? WHERE id = ?`), notes, id)
	if err != nil {
		return fmt.Errorf("update notes %d: %w", id, err)
	}
	return expectOne(res)
}

func (s *SQLStore) ByDate(ctx context.Context, date string, viewer Tier) ([]Bet, error) {
	return s.list(ctx, viewer, `COALESCE(placed_at, settled_at) = ?`, date)
}

func (s *SQLStore) SettledInRange(ctx context.Context, from, to string, viewer Tier) ([]Bet, error) {
	where, args := rangeClause("settled_at", from, to)
	return s.list(ctx, viewer, `result <> 'PENDING'`+where, args...)
}

func (s *SQLStore) PendingByDate(ctx context.Context, date string, viewer Tier) ([]Bet, error) {
	return s.list(ctx, viewer, `result = 'PENDING' AND COALESCE(placed_at, settled_at) = ?`, date)
}

func (s *SQLStore) PendingInRange(ctx context.Context, from, to string, viewer Tier) ([]Bet, error) {
	where, args := rangeClause("placed_at", from, to)
	return s.list(ctx, viewer, `result = 'PENDING'`+where, args...)
}

func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bets`).Scan(&n)
	return n, err
}

func (s *SQLStore) HasRecapForDate(ctx context.Context, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT COUNT(*) FROM recap_posts WHERE recap_date = ?`), date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has recap %s: %w", date, err)
	}
	return n > 0, nil
}

func (s *SQLStore) RecordRecapPost(ctx context.Context, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO recap_posts (recap_date, posted_at) VALUES (?, ?)
		ON CONFLICT (recap_date) DO NOTHING`), date, s.now().UTC().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("record recap %s: %w", date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) MappingOverrides(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, header FROM column_mappings`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var field, header string
		if err := rows.Scan(&field, &header); err != nil {
			return nil, err
		}
		out[field] = header
	}
	return out, rows.Err()
}

func (s *SQLStore) SetMappingOverride(ctx context.Context, field, header string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO column_mappings (field, header) VALUES (?, ?)
		ON CONFLICT (field) DO UPDATE SET header = excluded.header`), field, header)
	if err != nil {
		return fmt.Errorf("set mapping %s: %w", field, err)
	}
	return nil
}

func (s *SQLStore) ResetMappingOverrides(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM column_mappings`); err != nil {
		return fmt.Errorf("reset mappings: %w", err)
	}
	return nil
}

func (s *SQLStore) Setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// list executa um SELECT de apostas com o filtro de visibilidade do leitor
func (s *SQLStore) list(ctx context.Context, viewer Tier, where string, args ...any) ([]Bet, error) {
	vis := viewer.Visible()
	if len(vis) == 0 {
		return nil, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(vis)), ",")
	for _, v := range vis {
		args = append(args, string(v))
	}

	q := `SELECT ` + betColumns + ` FROM bets WHERE ` + where + ` AND visibility IN (` + ph + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(sc rowScanner) (*Bet, error) {
	var (
		b                            Bet
		source, result, visibility   string
		placedAt, settledAt, gameDay sql.NullString
		odds                         sql.NullInt64
		payout, profit               sql.NullFloat64
		createdAt                    int64
	)
	err := sc.Scan(
		&b.ID, &b.Hash, &source, &b.CreatedBy, &placedAt, &settledAt, &gameDay,
		&b.Sport, &b.League, &b.Market, &b.Pick, &odds, &b.Stake, &payout, &profit,
		&result, &visibility, &b.Book, &b.Tags, &b.Notes, &b.RawSource, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	b.Source = Source(source)
	b.Result = Result(result)
	b.Visibility = Tier(visibility)
	b.PlacedAt, b.SettledAt, b.GameDate = placedAt.String, settledAt.String, gameDay.String
	if odds.Valid {
		b.Odds = IntPtr(int(odds.Int64))
	}
	if payout.Valid {
		b.Payout = FloatPtr(payout.Float64)
	}
	if profit.Valid {
		b.Profit = FloatPtr(profit.Float64)
	}
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &b, nil
}

func rangeClause(col, from, to string) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	if from != "" {
		b.WriteString(" AND " + col + " >= ?")
		args = append(args, from)
	}
	if to != "" {
		b.WriteString(" AND " + col + " <= ?")
		args = append(args, to)
	}
	return b.String(), args
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
