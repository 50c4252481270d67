// Package store persists decoded deals in Postgres (pgx) or SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bridge-lin/server/corpus"
	"bridge-lin/server/engine"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrNotFound = errors.New("deal not found")

// Store is the deal repository used by the CLI and the HTTP API.
type Store interface {
	Migrate(ctx context.Context) error
	SaveDeal(ctx context.Context, file string, d *engine.Deal) (uuid.UUID, error)
	GetDeal(ctx context.Context, id uuid.UUID) (*Record, error)
	CountByContract(ctx context.Context) ([]ContractCount, error)
	Ping(ctx context.Context) error
	Close() error
}

// Record is one stored deal. Deal holds the JSON form written by
// engine.Deal.MarshalJSON.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	File      string          `json:"file"`
	Board     int             `json:"board"`
	Contract  string          `json:"contract"`
	Declarer  string          `json:"declarer"`
	Made      int             `json:"made"`
	Claimed   bool            `json:"claimed"`
	Deal      json.RawMessage `json:"deal"`
	CreatedAt time.Time       `json:"created_at"`
}

type ContractCount struct {
	Contract string `json:"contract"`
	Deals    int    `json:"deals"`
}

// Open picks the backend by driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgresql", "pg":
		return OpenPostgres(ctx, dsn)
	case DriverSQLite, "sqlite3":
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("invalid store driver %q (supported: %s, %s)", driver, DriverPostgres, DriverSQLite)
	}
}

// AsSink adapts a Store to the batch runner.
func AsSink(s Store) corpus.Sink {
	return corpus.SinkFunc(func(ctx context.Context, file string, d *engine.Deal) error {
		_, err := s.SaveDeal(ctx, file, d)
		return err
	})
}

// dealRow is the flattened form shared by both backends.
type dealRow struct {
	id       uuid.UUID
	board    int
	dealer   string
	vul      string
	contract string
	declarer string
	doubled  int
	made     int
	claimed  bool
	json     []byte
	calls    []engine.AuctionCall
}

func newDealRow(d *engine.Deal) (dealRow, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return dealRow{}, fmt.Errorf("marshal deal: %w", err)
	}
	row := dealRow{
		id:       uuid.New(),
		board:    d.Board(),
		dealer:   d.Dealer().String(),
		vul:      d.Vulnerability().String(),
		contract: d.Contract().String(),
		doubled:  int(d.Doubled()),
		made:     d.Made(),
		claimed:  d.Claimed(),
		json:     raw,
		calls:    d.Auction(),
	}
	if !d.PassedOut() {
		row.declarer = d.Declarer().String()
	}
	return row, nil
}
