package corpus

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bridge-lin/server/engine"
	"bridge-lin/server/lin"
)

// Result is the outcome of decoding one file. Deal is set only when Err
// is nil; Kind and Offset describe decode failures (KindNone and -1 for
// read errors and skipped files).
type Result struct {
	File     string
	Deal     *engine.Deal
	Err      error
	Kind     lin.Kind
	Offset   int
	SinkErr  error
	Warnings []lin.Warning
}

// OK reports whether the file decoded.
func (r Result) OK() bool { return r.Err == nil }

// Label names the outcome for metrics and summaries.
func (r Result) Label() string {
	switch {
	case r.Err == nil:
		return ResultOK
	case r.Kind != lin.KindNone:
		return r.Kind.String()
	default:
		return ResultReadError
	}
}

// Runner decodes files concurrently with a shared set of options.
type Runner struct {
	Workers int
	Options lin.Options
	Sink    Sink
	Metrics *Metrics
	Logger  *zap.Logger
}

// NewRunner returns a Runner with default options and a no-op logger.
func NewRunner(workers int, opts lin.Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Workers: workers, Options: opts, Logger: logger}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run decodes files and returns one Result per file in input order. A
// failing file never stops the batch; cancelling ctx stops scheduling,
// marks the unscheduled files with the context error and returns it.
func (r *Runner) Run(ctx context.Context, files []string) ([]Result, error) {
	opts := r.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	dec := lin.NewDecoder(opts)

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]Result, len(files))
	scheduled := 0
	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = r.decodeFile(gctx, dec, file)
			return nil
		})
		scheduled++
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := scheduled; i < len(files); i++ {
			results[i] = Result{File: files[i], Err: err, Offset: -1}
		}
		return results, err
	}
	return results, nil
}

// DecodeFile decodes a single file with the runner's options.
func (r *Runner) DecodeFile(ctx context.Context, file string) Result {
	return r.decodeFile(ctx, lin.NewDecoder(r.Options), file)
}

func (r *Runner) decodeFile(ctx context.Context, dec *lin.Decoder, file string) Result {
	log := r.logger().With(zap.String("file", file))
	start := time.Now()

	res := Result{File: file, Offset: -1}
	raw, err := os.ReadFile(file)
	if err != nil {
		res.Err = err
		r.Metrics.Observe(res, time.Since(start))
		log.Warn("read failed", zap.Error(err))
		return res
	}

	d, warns, err := dec.DecodeWithWarnings(string(raw))
	res.Warnings = warns
	for _, w := range warns {
		log.Warn("transcript warning",
			zap.String("tag", w.Tag),
			zap.Int("offset", w.Offset),
			zap.String("detail", w.Msg))
	}
	if err != nil {
		res.Err = err
		res.Kind = lin.KindOf(err)
		res.Offset = lin.OffsetOf(err)
		r.Metrics.Observe(res, time.Since(start))
		log.Info("decode failed",
			zap.Stringer("kind", res.Kind),
			zap.Int("offset", res.Offset),
			zap.Error(err))
		return res
	}
	res.Deal = d
	r.Metrics.Observe(res, time.Since(start))
	log.Debug("decoded", zap.Stringer("deal", d))

	if r.Sink != nil {
		if err := r.Sink.Save(ctx, file, d); err != nil && !errors.Is(err, context.Canceled) {
			res.SinkErr = err
			log.Error("sink failed", zap.Error(err))
		}
	}
	return res
}
