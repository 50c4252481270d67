package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bridge-lin/server/engine"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite is the single-file store used by local batch runs.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) SaveDeal(ctx context.Context, file string, d *engine.Deal) (uuid.UUID, error) {
	row, err := newDealRow(d)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO deals (id, file, board, dealer, vul, contract, declarer, doubled, made, claimed, deal, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, row.id.String(), file, row.board, row.dealer, row.vul, row.contract, row.declarer,
		row.doubled, row.made, boolToInt(row.claimed), string(row.json), time.Now().UTC().UnixMilli()); err != nil {
		return uuid.Nil, fmt.Errorf("insert deal: %w", err)
	}

	if len(row.calls) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO deal_calls (deal_id, seq, position, call, alerted, explanation)
VALUES (?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return uuid.Nil, err
		}
		defer stmt.Close()
		for i, c := range row.calls {
			if _, err := stmt.ExecContext(ctx, row.id.String(), i, c.Position.String(), c.Call.String(),
				boolToInt(c.Alerted), c.Explanation); err != nil {
				return uuid.Nil, fmt.Errorf("insert calls: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return row.id, nil
}

func (s *SQLite) GetDeal(ctx context.Context, id uuid.UUID) (*Record, error) {
	var (
		rec       Record
		idS       string
		claimed   int
		deal      string
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, file, board, contract, declarer, made, claimed, deal, created_at_ms
  FROM deals WHERE id = ?
`, id.String()).Scan(&idS, &rec.File, &rec.Board, &rec.Contract, &rec.Declarer,
		&rec.Made, &claimed, &deal, &createdMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.ID, err = uuid.Parse(idS); err != nil {
		return nil, err
	}
	rec.Claimed = claimed != 0
	rec.Deal = []byte(deal)
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &rec, nil
}

func (s *SQLite) CountByContract(ctx context.Context) ([]ContractCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT contract, COUNT(*)
  FROM deals
 GROUP BY contract
 ORDER BY COUNT(*) DESC, contract
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContractCount
	for rows.Next() {
		var c ContractCount
		if err := rows.Scan(&c.Contract, &c.Deals); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
