// Package updater keeps the client root in step with the published manifest:
// it inventories local files, fetches the remote file list, diffs the two and
// downloads whatever changed.
package updater

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/launchersdk"
	"github.com/genesisproj/launcher/internal/manifest"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrRunInProgress = errors.New("updater: sync already running")

// Inventory produces the local manifest. *InventoryBuilder implements it.
type Inventory interface {
	Build(ctx context.Context) (*manifest.Manifest, error)
}

// ManifestFetcher retrieves the remote manifest. *launchersdk.Client implements it.
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, url string) (*manifest.Manifest, error)
}

// Observer receives run events. Any field may be nil. OnProgress and OnFile
// are called from download workers.
type Observer struct {
	OnState    func(State)
	OnProgress ProgressFunc
	OnFile     FileFunc
}

// Result is the outcome of one Run. Err and ErrorCode are only set when
// Status is StatusFailed.
type Result struct {
	RunID     string
	State     State
	Status    Status
	Local     int // files found locally
	Remote    int // files in the remote manifest
	Unmanaged int // local files the manifest does not list
	Tasks     []DownloadTask
	Summary   DownloadSummary
	Err       error
	ErrorCode string
	Elapsed   time.Duration
}

type Orchestrator struct {
	manifestURL string
	inventory   Inventory
	fetcher     ManifestFetcher
	coordinator *Coordinator
	metrics     *Metrics
	observer    Observer

	running atomic.Bool
}

// New wires the production components for cfg. Metrics register on reg,
// which may be nil.
func New(cfg *config.Config, client *launchersdk.Client, reg prometheus.Registerer) (*Orchestrator, error) {
	inventory, err := NewInventoryBuilder(cfg)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(reg)
	coordinator := NewCoordinator(cfg, client, metrics)

	return NewOrchestrator(cfg, inventory, client, coordinator, metrics), nil
}

func NewOrchestrator(cfg *config.Config, inventory Inventory, fetcher ManifestFetcher, coordinator *Coordinator, metrics *Metrics) *Orchestrator {
	if metrics == nil {
		metrics = coordinator.metrics
	}
	return &Orchestrator{
		manifestURL: cfg.ManifestURL,
		inventory:   inventory,
		fetcher:     fetcher,
		coordinator: coordinator,
		metrics:     metrics,
	}
}

// SetObserver must be called before Run.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.observer = obs
}

// Run performs one sync. It always returns a Result; the only failing outcome
// is an unobtainable remote manifest. Inventory problems degrade to an empty
// local manifest and download failures are logged and counted. Calling Run
// while another Run is active returns a failed Result with ErrRunInProgress.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	if !o.running.CompareAndSwap(false, true) {
		return &Result{State: StateFailed, Status: StatusFailed, Err: ErrRunInProgress}
	}
	defer o.running.Store(false)

	start := time.Now()
	res := &Result{RunID: uuid.NewString(), State: StateIdle}
	log := slog.With("run", res.RunID)
	defer func() {
		res.Elapsed = time.Since(start)
		o.metrics.RunsTotal.WithLabelValues(string(res.Status)).Inc()
		log.Info("sync finished", "status", res.Status, "elapsed", res.Elapsed.Round(time.Millisecond))
	}()

	o.enter(res, log, StateBuildingInventory)
	local, err := o.inventory.Build(ctx)
	if err != nil || local == nil {
		log.Warn("local inventory unavailable, treating as empty", "error", err)
		local = manifest.New()
	}
	res.Local = local.Len()

	o.enter(res, log, StateFetchingManifest)
	remote, err := o.fetcher.FetchManifest(ctx, o.manifestURL)
	if err != nil {
		log.Error("no update possible", "url", o.manifestURL, "error", err)
		res.Status = StatusFailed
		res.Err = err
		res.ErrorCode = launchersdk.ErrorCode(err)
		o.enter(res, log, StateFailed)
		return res
	}
	res.Remote = remote.Len()

	o.enter(res, log, StateDiffing)
	res.Tasks = Diff(remote, local)
	if unmanaged := Unmanaged(remote, local); len(unmanaged) > 0 {
		res.Unmanaged = len(unmanaged)
		log.Debug("unmanaged local files kept", "count", len(unmanaged), "paths", unmanaged)
	}

	if len(res.Tasks) == 0 {
		log.Info("client up to date", "files", res.Remote)
		if o.observer.OnProgress != nil {
			o.observer.OnProgress(0, 0)
		}
		res.Status = StatusUpToDate
		o.enter(res, log, StateDone)
		return res
	}

	if res.Local == 0 {
		log.Info("local inventory empty, downloading every file", "files", len(res.Tasks))
	} else {
		log.Info("updates required", "files", len(res.Tasks))
	}

	o.enter(res, log, StateDownloading)
	res.Summary = o.coordinator.Run(ctx, res.Tasks, o.observer.OnProgress, o.observer.OnFile)
	res.Status = StatusUpdated
	o.enter(res, log, StateDone)
	return res
}

func (o *Orchestrator) enter(res *Result, log *slog.Logger, s State) {
	res.State = s
	log.Debug("sync state", "state", s)
	if o.observer.OnState != nil {
		o.observer.OnState(s)
	}
}
