package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genesisproj/launcher/internal/clientdir"
	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/updater"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

type fakeCDN struct {
	files          map[string]string
	manifestStatus atomic.Int32
	server         *httptest.Server
}

func newFakeCDN(t *testing.T, files map[string]string) *fakeCDN {
	t.Helper()
	cdn := &fakeCDN{files: files}
	cdn.manifestStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/file_list.json", func(w http.ResponseWriter, r *http.Request) {
		if code := int(cdn.manifestStatus.Load()); code != http.StatusOK {
			http.Error(w, "unavailable", code)
			return
		}
		var parts []string
		for path, body := range cdn.files {
			parts = append(parts, `"`+path+`": {"hash": "`+digestOf(body)+`", "path": "`+path+`"}`)
		}
		w.Write([]byte("{" + strings.Join(parts, ",") + "}"))
	})
	mux.HandleFunc("/client/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := cdn.files[strings.TrimPrefix(r.URL.Path, "/client/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})
	cdn.server = httptest.NewServer(mux)
	t.Cleanup(cdn.server.Close)
	return cdn
}

func (c *fakeCDN) config(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ClientRoot:      root,
		ManifestURL:     c.server.URL + "/file_list.json",
		DownloadBaseURL: c.server.URL + "/client",
		SnapshotPath:    filepath.Join(t.TempDir(), "local_file_list.json"),
		LogFile:         filepath.Join(t.TempDir(), "launcher.log"),
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunSync_UpdatesThenUpToDate(t *testing.T) {
	noColor(t)

	cdn := newFakeCDN(t, map[string]string{
		"genesisproject_gl_x64.exe": "exe",
		"data/maps/map1.bin":        "map",
	})
	root := t.TempDir()
	cfg := cdn.config(t, root)

	var out bytes.Buffer
	res, err := runSync(context.Background(), cfg, &runOptions{}, &out)
	require.NoError(t, err)
	require.Equal(t, updater.StatusUpdated, res.Status, "err: %v", res.Err)
	assert.Equal(t, 2, res.Summary.Succeeded)

	got := out.String()
	assert.Contains(t, got, "==> Checking local files")
	assert.Contains(t, got, "==> Downloading updates")
	assert.Contains(t, got, "[2/2] 100%")
	assert.Contains(t, got, "OK updated 2 of 2 files")

	data, err := os.ReadFile(filepath.Join(root, "data", "maps", "map1.bin"))
	require.NoError(t, err)
	assert.Equal(t, "map", string(data))

	// lock released after the run
	assert.NoFileExists(t, filepath.Join(root, clientdir.LockFileName))

	out.Reset()
	res, err = runSync(context.Background(), cfg, &runOptions{}, &out)
	require.NoError(t, err)
	assert.Equal(t, updater.StatusUpToDate, res.Status)
	assert.Contains(t, out.String(), "OK client is up to date (2 files checked")
	assert.NotContains(t, out.String(), "Downloading updates")
}

func TestRunSync_ManifestUnavailable(t *testing.T) {
	noColor(t)

	cdn := newFakeCDN(t, map[string]string{"a.bin": "a"})
	cdn.manifestStatus.Store(http.StatusServiceUnavailable)
	cfg := cdn.config(t, t.TempDir())

	var out bytes.Buffer
	res, err := runSync(context.Background(), cfg, &runOptions{}, &out)
	require.NoError(t, err)
	assert.Equal(t, updater.StatusFailed, res.Status)
	assert.Equal(t, updater.StateFailed, res.State)
	assert.Contains(t, out.String(), "FAILED update failed [E_NETWORK]")
}

func TestRunSync_ClientDirLocked(t *testing.T) {
	cdn := newFakeCDN(t, map[string]string{"a.bin": "a"})
	root := t.TempDir()
	cfg := cdn.config(t, root)

	holder, err := clientdir.New(root)
	require.NoError(t, err)
	require.NoError(t, holder.Lock())
	t.Cleanup(func() { holder.Unlock() })

	_, err = runSync(context.Background(), cfg, &runOptions{}, io.Discard)
	require.ErrorIs(t, err, clientdir.ErrLocked)
	assert.NoFileExists(t, filepath.Join(root, "a.bin"))
}

func TestRunSync_MetricsListenerBusy(t *testing.T) {
	cdn := newFakeCDN(t, map[string]string{"a.bin": "a"})
	cfg := cdn.config(t, t.TempDir())

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	_, err = runSync(context.Background(), cfg, &runOptions{metricsAddr: busy.Addr().String()}, io.Discard)
	require.ErrorContains(t, err, "metrics listener")
}

func TestServeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "launcher_test_runs_total", Help: "test"})
	reg.MustRegister(runs)
	runs.Inc()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMetrics(ctx, ln, reg) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "launcher_test_runs_total 1")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
