// Command cubedb runs the cubedb TCP server: an in-memory, append-only
// columnar store for pre-aggregated event counts (see SPEC_FULL.md).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/expobrain/cubedb/internal/config"
	"github.com/expobrain/cubedb/internal/cubedb"
	"github.com/expobrain/cubedb/internal/dump"
	"github.com/expobrain/cubedb/internal/rpc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "cubedb",
		Short: "In-memory columnar aggregation store with a line-oriented TCP protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	config.BindFlags(cmd, v)
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.Info("starting", "port", cfg.Port, "dump_path", cfg.DumpPath, "connections", cfg.Connections)

	meterProvider, shutdownMetrics, err := newMeterProvider()
	if err != nil {
		return fmt.Errorf("cubedb: metrics setup: %w", err)
	}
	metrics, err := rpc.NewMetrics(meterProvider.Meter("cubedb"))
	if err != nil {
		return fmt.Errorf("cubedb: metrics instruments: %w", err)
	}

	db := cubedb.New()
	if cfg.DumpPath != "" {
		if err := dump.Load(db, cfg.DumpPath, log); err != nil {
			// A dump directory that exists but can't be read is a fatal
			// startup condition: serving an empty store would silently
			// discard whatever was persisted (SPEC_FULL.md's dump section).
			return fmt.Errorf("cubedb: loading dump: %w", err)
		}
	}

	srv, err := rpc.NewServer(":"+cfg.Port, rpc.Options{
		DB:       db,
		DumpPath: cfg.DumpPath,
		Dump:     func(dir string) error { return dump.Write(db, dir) },
		Log:      log,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		return srv.Close()
	})

	// Serve only returns once every in-flight session has drained (it
	// waits on its connection WaitGroup before returning), so by the
	// time group.Wait() unblocks there is no concurrent mutator left and
	// dumping db directly here is safe.
	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
	}
	if cfg.DumpPath != "" {
		if err := dump.Write(db, cfg.DumpPath); err != nil {
			log.Error("dump on shutdown failed", "error", err)
		} else {
			log.Info("dumped on shutdown", "dump_path", cfg.DumpPath)
		}
	}
	_ = shutdownMetrics(context.Background())
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	out := os.Stderr
	opts := &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}

	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			return slog.New(slog.NewJSONHandler(f, opts))
		}
		fmt.Fprintf(os.Stderr, "cubedb: could not open log path %s, falling back to stderr: %v\n", cfg.LogPath, err)
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// newMeterProvider wires a stdout metric exporter on a 10s periodic
// reader, matching the otel dependency set carried across the example
// pack with the simplest real exporter rather than requiring an external
// collector for this tool to run.
func newMeterProvider() (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	return mp, mp.Shutdown, nil
}
