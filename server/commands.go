package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"bridge-lin/server/config"
	"bridge-lin/server/corpus"
	"bridge-lin/server/lin"
	"bridge-lin/server/publish"
	"bridge-lin/server/store"
)

// decoderFlags override the decoder section of the config.
type decoderFlags struct {
	dealerRule   string
	seating      string
	fromDealer   bool
	declarerRule string

	cmd *cobra.Command
}

func (f *decoderFlags) register(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().StringVar(&f.dealerRule, "dealer-rule", "", "Dealer source: board or deal")
	cmd.Flags().StringVar(&f.seating, "seating", "", "Seat of each listed player, e.g. SWNE")
	cmd.Flags().BoolVar(&f.fromDealer, "seating-from-dealer", false, "Rotate seating so the first player deals (=false overrides the config)")
	cmd.Flags().StringVar(&f.declarerRule, "declarer-rule", "", "Declarer: winning-bidder or first-named")
}

func (f *decoderFlags) apply(cfg *config.Config) error {
	dc := config.DecoderConfig{
		DealerRule:   f.dealerRule,
		Seating:      f.seating,
		DeclarerRule: f.declarerRule,
	}
	if f.cmd != nil && f.cmd.Flags().Changed("seating-from-dealer") {
		dc.SeatingFromDealer = config.Bool(f.fromDealer)
	}
	cfg.Merge(&config.Config{Decoder: dc})
	return cfg.Validate()
}

func decodeCmd(g *globals) *cobra.Command {
	var (
		df     decoderFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode .lin files and print each deal",
		Long:  "Decode each file (\"-\" reads stdin). Prints JSON deals with --json; exits non-zero if any file fails.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := df.apply(cfg); err != nil {
				return err
			}
			opts, err := cfg.DecoderOptions()
			if err != nil {
				return err
			}
			return runDecode(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts, asJSON, logger)
		},
	}
	df.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", true, "Print deals as JSON")
	return cmd
}

func runDecode(ctx context.Context, stdin io.Reader, out io.Writer, files []string, opts lin.Options, asJSON bool, logger *zap.Logger) error {
	runner := corpus.NewRunner(1, opts, logger)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	failed := 0
	for _, file := range files {
		var res corpus.Result
		if file == "-" {
			res = decodeReader(stdin, opts)
		} else {
			res = runner.DecodeFile(ctx, file)
		}
		if !res.OK() {
			failed++
			printResult(os.Stderr, res)
			continue
		}
		if asJSON {
			if err := enc.Encode(res.Deal); err != nil {
				return err
			}
		} else {
			printResult(out, res)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to decode", failed, len(files))
	}
	return nil
}

func decodeReader(r io.Reader, opts lin.Options) corpus.Result {
	res := corpus.Result{File: "-", Offset: -1}
	raw, err := io.ReadAll(r)
	if err != nil {
		res.Err = err
		return res
	}
	res.Deal, res.Warnings, res.Err = lin.NewDecoder(opts).DecodeWithWarnings(string(raw))
	if res.Err != nil {
		res.Kind, res.Offset = lin.KindOf(res.Err), lin.OffsetOf(res.Err)
	}
	return res
}

func batchCmd(g *globals) *cobra.Command {
	var (
		df      decoderFlags
		root    string
		pattern string
		workers int
		toStore bool
		toNATS  bool
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Decode every matching file under a directory and summarize",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			cfg.Merge(&config.Config{Batch: config.BatchConfig{Root: root, Pattern: pattern, Workers: workers}})
			if err := df.apply(cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			runner, closeSinks, err := newRunner(ctx, cfg, logger, toStore, toNATS)
			if err != nil {
				return err
			}
			defer closeSinks()

			files, err := corpus.Collect(cfg.Batch.Root, cfg.Batch.Pattern)
			if err != nil {
				return err
			}
			runID := uuid.New()
			logger.Info("batch started",
				zap.Stringer("run", runID),
				zap.String("root", cfg.Batch.Root),
				zap.Int("files", len(files)),
				zap.Int("workers", runner.Workers))

			start := time.Now()
			results, runErr := runner.Run(ctx, files)
			summary := corpus.Summarize(results)
			logger.Info("batch finished",
				zap.Stringer("run", runID),
				zap.Int("decoded", summary.Decoded),
				zap.Int("failed", summary.FailedTotal()),
				zap.Duration("elapsed", time.Since(start)))

			out := cmd.OutOrStdout()
			section(out, "Summary")
			if err := summary.Write(out, results); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if strict && summary.FailedTotal() > 0 {
				return fmt.Errorf("%d of %d files failed to decode", summary.FailedTotal(), summary.Files)
			}
			return nil
		},
	}
	df.register(cmd)
	cmd.Flags().StringVar(&root, "root", "", "Directory to scan (default from config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Doublestar pattern, e.g. '**/*.lin'")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel decoders")
	cmd.Flags().BoolVar(&toStore, "store", false, "Save decoded deals to the configured store")
	cmd.Flags().BoolVar(&toNATS, "publish", false, "Publish decoded deals to NATS")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any file fails")
	return cmd
}

func watchCmd(g *globals) *cobra.Command {
	var (
		df      decoderFlags
		toStore bool
		toNATS  bool
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Decode files as they are written under DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := df.apply(cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			runner, closeSinks, err := newRunner(ctx, cfg, logger, toStore, toNATS)
			if err != nil {
				return err
			}
			defer closeSinks()

			w, err := corpus.NewWatcher(args[0], cfg.Batch.Pattern, runner, logger)
			if err != nil {
				return err
			}
			defer w.Stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			logger.Info("watching", zap.String("dir", args[0]), zap.String("pattern", cfg.Batch.Pattern))

			var results []corpus.Result
			for res := range w.Results() {
				printResult(cmd.OutOrStdout(), res)
				results = append(results, res)
			}
			section(cmd.OutOrStdout(), "Summary")
			return corpus.Summarize(results).Write(cmd.OutOrStdout(), nil)
		},
	}
	df.register(cmd)
	cmd.Flags().BoolVar(&toStore, "store", false, "Save decoded deals to the configured store")
	cmd.Flags().BoolVar(&toNATS, "publish", false, "Publish decoded deals to NATS")
	return cmd
}

func serveCmd(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the decode API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if port != "" {
				cfg.HTTP.Port = port
			}

			ctx, cancel := signalContext()
			defer cancel()

			var st store.Store
			if cfg.Store.Driver != "" {
				if st, err = openStore(ctx, cfg, logger); err != nil {
					return err
				}
				defer st.Close()
			}
			opts, err := cfg.DecoderOptions()
			if err != nil {
				return err
			}

			api := &API{
				Options: opts,
				Store:   st,
				Metrics: corpus.NewMetrics(),
				Logger:  logger,
				MaxBody: cfg.HTTP.MaxBody,
			}
			srv := &http.Server{
				Addr:         ":" + cfg.HTTP.Port,
				Handler:      api.Router(),
				ReadTimeout:  cfg.HTTP.ReadTimeout,
				WriteTimeout: cfg.HTTP.WriteTimeout,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("listening", zap.String("addr", "http://localhost:"+cfg.HTTP.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from config or PORT)")
	return cmd
}

func migrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the deal store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.Store.Driver == "" {
				return errors.New("no store configured (set store.driver, DATABASE_URL or STORE_DRIVER)")
			}
			cfg.Store.AutoMigrate = true
			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			logger.Info("migrated", zap.String("driver", cfg.Store.Driver))
			return nil
		},
	}
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or show configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration",
		Long:  "Write the default configuration as YAML to PATH (default " + config.ProjectConfigFile + "). An existing file is kept unless --force is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			cfg := config.DefaultConfig()
			cfg.Decoder.SeatingFromDealer = config.Bool(false)
			if err := cfg.Write(path, force); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s exists; use --force to replace it", path)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after files and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

// openStore opens the configured store, migrating when asked to.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == store.DriverSQLite {
		dsn = cfg.Store.SQLitePath
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Store.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Debug("store opened", zap.String("driver", cfg.Store.Driver))
	return st, nil
}

// newRunner builds a batch runner with the sinks the flags ask for. The
// returned func closes them.
func newRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, toStore, toNATS bool) (*corpus.Runner, func(), error) {
	opts, err := cfg.DecoderOptions()
	if err != nil {
		return nil, nil, err
	}
	runner := corpus.NewRunner(cfg.Batch.Workers, opts, logger)

	var (
		sinks   corpus.MultiSink
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}

	if toStore {
		if cfg.Store.Driver == "" {
			return nil, nil, errors.New("--store needs store.driver, DATABASE_URL or STORE_DRIVER")
		}
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, store.AsSink(st))
		closers = append(closers, st.Close)
	}
	if toNATS {
		if cfg.NATS.URL == "" {
			closeAll()
			return nil, nil, errors.New("--publish needs nats.url or NATS_URL")
		}
		pub, err := publish.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, pub)
		closers = append(closers, pub.Close)
	}
	if len(sinks) > 0 {
		runner.Sink = sinks
	}
	return runner, closeAll, nil
}
