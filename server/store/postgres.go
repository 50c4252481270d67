package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-lin/server/engine"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres stores deals through a pgx pool.
type Postgres struct{ *pgxpool.Pool }

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{p}, nil
}

func (db *Postgres) Close() error                   { db.Pool.Close(); return nil }
func (db *Postgres) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func (db *Postgres) Migrate(ctx context.Context) error {
	_, err := db.Exec(ctx, postgresSchema)
	return err
}

// SaveDeal inserts the deal and its auction in one transaction.
func (db *Postgres) SaveDeal(ctx context.Context, file string, d *engine.Deal) (uuid.UUID, error) {
	row, err := newDealRow(d)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `
		INSERT INTO deals(id, file, board, dealer, vul, contract, declarer, doubled, made, claimed, deal)
		VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb)
	`, row.id.String(), file, row.board, row.dealer, row.vul, row.contract, row.declarer,
		row.doubled, row.made, row.claimed, string(row.json)); err != nil {
		return uuid.Nil, fmt.Errorf("insert deal: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range row.calls {
		batch.Queue(`
			INSERT INTO deal_calls(deal_id, seq, position, call, alerted, explanation)
			VALUES ($1::uuid,$2,$3,$4,$5,$6)
		`, row.id.String(), i, c.Position.String(), c.Call.String(), c.Alerted, c.Explanation)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return uuid.Nil, fmt.Errorf("insert calls: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return row.id, nil
}

func (db *Postgres) GetDeal(ctx context.Context, id uuid.UUID) (*Record, error) {
	var (
		rec  Record
		idS  string
		deal string
	)
	err := db.QueryRow(ctx, `
		SELECT id::text, file, board, contract, declarer, made, claimed, deal::text, created_at
		  FROM deals WHERE id = $1::uuid
	`, id.String()).Scan(&idS, &rec.File, &rec.Board, &rec.Contract, &rec.Declarer,
		&rec.Made, &rec.Claimed, &deal, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.ID, err = uuid.Parse(idS); err != nil {
		return nil, err
	}
	rec.Deal = []byte(deal)
	return &rec, nil
}

func (db *Postgres) CountByContract(ctx context.Context) ([]ContractCount, error) {
	rows, err := db.Query(ctx, `
		SELECT contract, COUNT(*)::int
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
