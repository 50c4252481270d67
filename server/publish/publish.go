// Package publish announces decoded deals on NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"bridge-lin/server/engine"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Drain() error
}

// Message is the payload published per deal.
type Message struct {
	File string       `json:"file"`
	Deal *engine.Deal `json:"deal"`
}

// NATS publishes each deal as JSON under <subject>.<contract>.
type NATS struct {
	conn    Conn
	subject string
	logger  *zap.Logger
}

func New(conn Conn, subject string, logger *zap.Logger) *NATS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATS{conn: conn, subject: strings.TrimSuffix(subject, "."), logger: logger}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, subject string, logger *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("bridge-lin"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return New(conn, subject, logger), nil
}

// Subject is where a deal lands, e.g. "bridge.deals.3NT" or "bridge.deals.PO".
func (p *NATS) Subject(d *engine.Deal) string {
	return p.subject + "." + d.Contract().String()
}

func (p *NATS) Save(ctx context.Context, file string, d *engine.Deal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Message{File: file, Deal: d})
	if err != nil {
		return fmt.Errorf("marshal deal: %w", err)
	}
	subj := p.Subject(d)
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("publish %s: %w", subj, err)
	}
	p.logger.Debug("published deal", zap.String("subject", subj), zap.String("file", file))
	return nil
}

// Close flushes pending messages and drains the connection.
func (p *NATS) Close() error {
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		p.logger.Warn("flush failed", zap.Error(err))
	}
	return p.conn.Drain()
}
