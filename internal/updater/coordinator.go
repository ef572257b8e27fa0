package updater

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/launchersdk"
	"github.com/genesisproj/launcher/internal/utils"
)

// Downloader fetches one file to disk. *launchersdk.Client implements it.
type Downloader interface {
	DownloadFile(ctx context.Context, job *launchersdk.DownloadJob) (*launchersdk.DownloadResult, error)
}

// FileEvent describes one settled download. Err is nil on success.
type FileEvent struct {
	Path    string
	Bytes   int64
	Elapsed time.Duration
	Err     error
}

// FileFunc is called from worker goroutines once per settled task.
type FileFunc func(ev FileEvent)

// DownloadSummary counts the outcome of a batch. Individual failures are only
// recorded in the log.
type DownloadSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
}

// Coordinator downloads a batch of tasks with a bounded worker pool.
type Coordinator struct {
	root    string
	baseURL string
	workers int
	retries int
	verify  bool

	dl      Downloader
	metrics *Metrics

	newBackOff func() backoff.BackOff
}

func NewCoordinator(cfg *config.Config, dl Downloader, metrics *Metrics) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Coordinator{
		root:    cfg.ClientRoot,
		baseURL: cfg.DownloadBaseURL,
		workers: workers,
		retries: cfg.DownloadRetries,
		verify:  cfg.VerifyDigests,
		dl:      dl,
		metrics: metrics,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Run downloads every task and returns once all of them have settled. A
// failed task never cancels its siblings. onProgress sees (0, N) first and
// (N, N) last whatever the individual outcomes. Cancelling ctx stops new
// transfers; tasks not yet started settle as failed.
func (c *Coordinator) Run(ctx context.Context, tasks []DownloadTask, onProgress ProgressFunc, onFile FileFunc) DownloadSummary {
	total := len(tasks)

	var progress ProgressState
	progress.Reset(total)
	if onProgress != nil {
		onProgress(0, total)
	}
	if total == 0 {
		return DownloadSummary{}
	}

	jobs := make(chan DownloadTask, total)
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)

	var (
		succeeded atomic.Int64
		failed    atomic.Int64
		bytes     atomic.Int64
	)

	workers := min(c.workers, total)
	slog.Info("download batch start", "files", total, "workers", workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for task := range jobs {
				ev := c.runTask(ctx, task)

				if ev.Err != nil {
					failed.Add(1)
					c.metrics.FilesTotal.WithLabelValues("failed").Inc()
					slog.Error("download failed", "path", task.Path, "error", ev.Err)
				} else {
					succeeded.Add(1)
					bytes.Add(ev.Bytes)
					c.metrics.FilesTotal.WithLabelValues("ok").Inc()
					c.metrics.BytesTotal.Add(float64(ev.Bytes))
					slog.Info("downloaded", "path", task.Path, "size", humanize.Bytes(uint64(ev.Bytes)), "elapsed", ev.Elapsed.Round(time.Millisecond))
				}
				c.metrics.FileDuration.Observe(ev.Elapsed.Seconds())

				if onFile != nil {
					onFile(ev)
				}
				progress.Settle(onProgress)
			}
		}()
	}
	wg.Wait()

	summary := DownloadSummary{
		Total:     total,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Bytes:     bytes.Load(),
	}
	slog.Info("download batch settled",
		"files", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"size", humanize.Bytes(uint64(summary.Bytes)),
	)
	return summary
}

func (c *Coordinator) runTask(ctx context.Context, task DownloadTask) FileEvent {
	start := time.Now()
	ev := FileEvent{Path: task.Path}

	if err := ctx.Err(); err != nil {
		ev.Err = fmt.Errorf("not started: %w", err)
		return ev
	}

	if err := utils.CheckRelPath(task.Path); err != nil {
		ev.Err = fmt.Errorf("invalid task path %q: %w", task.Path, err)
		return ev
	}

	url, err := utils.JoinURL(c.baseURL, task.Path)
	if err != nil {
		ev.Err = err
		return ev
	}

	job := &launchersdk.DownloadJob{
		URL:  url,
		Dest: filepath.Join(c.root, filepath.FromSlash(task.Path)),
	}
	if c.verify {
		job.ExpectedDigest = task.ExpectedDigest
	}

	c.metrics.DownloadsActive.Inc()
	defer c.metrics.DownloadsActive.Dec()

	var res *launchersdk.DownloadResult
	operation := func() error {
		r, err := c.dl.DownloadFile(ctx, job)
		if err != nil {
			if launchersdk.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(max(c.retries, 0))), ctx)
	err = backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		slog.Warn("download retry", "path", task.Path, "wait", wait, "error", err)
	})

	ev.Elapsed = time.Since(start)
	if err != nil {
		ev.Err = err
		return ev
	}

	ev.Bytes = res.Bytes
	return ev
}
