package updater

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on the registerer handed to NewMetrics so several
// launchers (or tests) never collide on the default registry.
type Metrics struct {
	FilesTotal      *prometheus.CounterVec
	BytesTotal      prometheus.Counter
	FileDuration    prometheus.Histogram
	DownloadsActive prometheus.Gauge
	RunsTotal       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_files_downloaded_total",
				Help: "Settled file downloads by result",
			},
			[]string{"result"},
		),
		BytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "launcher_download_bytes_total",
				Help: "Bytes written to the client root by downloads",
			},
		),
		FileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "launcher_file_download_duration_seconds",
				Help:    "Time to download one file including retries",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		DownloadsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "launcher_downloads_active",
				Help: "Downloads currently in flight",
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launcher_sync_runs_total",
				Help: "Completed sync runs by final status",
			},
			[]string{"status"},
		),
	}
}
