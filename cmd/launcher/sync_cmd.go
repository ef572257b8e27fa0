package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/genesisproj/launcher/internal/clientdir"
	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/launchersdk"
	"github.com/genesisproj/launcher/internal/updater"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errSyncFailed = errors.New("update failed")

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Bring the client directory in line with the published file list",
		Args:  cobra.NoArgs,
		RunE:  syncCmdRunE,
	}
}

func syncCmdRunE(cmd *cobra.Command, args []string) error {
	cfg, opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true
	setLogLevel(opts.debug)

	closeLog, err := openLogFile(cfg.LogFile, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	res, err := runSync(cmd.Context(), cfg, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if res.Status == updater.StatusFailed {
		return fmt.Errorf("%w: %w", errSyncFailed, res.Err)
	}
	return nil
}

// syncEvent carries one observer callback from the run goroutine to the
// renderer.
type syncEvent struct {
	state     *updater.State
	file      *updater.FileEvent
	completed int
	total     int
}

// runSync performs one sync run on a background goroutine while the calling
// goroutine's group renders progress to out. With opts.metricsAddr set the
// run's metrics are served until it finishes.
func runSync(ctx context.Context, cfg *config.Config, opts *runOptions, out io.Writer) (*updater.Result, error) {
	dir, err := clientdir.New(cfg.ClientRoot)
	if err != nil {
		return nil, err
	}
	if err := dir.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := dir.Unlock(); err != nil {
			slog.Warn("failed to release client directory", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := launchersdk.New(0)
	orch, err := updater.New(cfg, client, reg)
	if err != nil {
		return nil, err
	}

	var ln net.Listener
	if opts.metricsAddr != "" {
		if ln, err = net.Listen("tcp", opts.metricsAddr); err != nil {
			return nil, fmt.Errorf("metrics listener: %w", err)
		}
		slog.Info("serving metrics", "addr", ln.Addr().String())
	}

	events := make(chan syncEvent, 64)
	orch.SetObserver(updater.Observer{
		OnState: func(s updater.State) {
			events <- syncEvent{state: &s}
		},
		OnProgress: func(completed, total int) {
			events <- syncEvent{completed: completed, total: total}
		},
		OnFile: func(ev updater.FileEvent) {
			events <- syncEvent{file: &ev}
		},
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, egCtx := errgroup.WithContext(runCtx)

	var res *updater.Result
	eg.Go(func() error {
		defer cancel()
		defer close(events)
		res = orch.Run(egCtx)
		return nil
	})

	reporter := newProgressReporter(out)
	eg.Go(func() error {
		for ev := range events {
			switch {
			case ev.state != nil:
				reporter.State(*ev.state)
			case ev.file != nil:
				reporter.File(*ev.file)
			default:
				reporter.Progress(ev.completed, ev.total)
			}
		}
		return nil
	})

	if ln != nil {
		eg.Go(func() error {
			return serveMetrics(egCtx, ln, reg)
		})
	}

	if err := eg.Wait(); err != nil {
		return res, err
	}

	reporter.Summary(res, client.Stats())
	return res, nil
}

// serveMetrics serves reg on ln until ctx is done.
func serveMetrics(ctx context.Context, ln net.Listener, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
