package corpus

import (
	"context"
	"errors"

	"bridge-lin/server/engine"
)

// Sink receives every successfully decoded deal.
type Sink interface {
	Save(ctx context.Context, file string, d *engine.Deal) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, file string, d *engine.Deal) error

func (f SinkFunc) Save(ctx context.Context, file string, d *engine.Deal) error {
	return f(ctx, file, d)
}

// MultiSink hands each deal to every sink in order and joins their errors.
type MultiSink []Sink

func (m MultiSink) Save(ctx context.Context, file string, d *engine.Deal) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, file, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
