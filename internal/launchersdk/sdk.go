// Package launchersdk talks to the update CDN: it fetches the published file
// list and streams individual client files to disk.
package launchersdk

import (
	"time"

	"github.com/genesisproj/launcher/internal/version"
	"github.com/imroc/req/v3"
)

const (
	HeaderLauncherVersion = "X-Launcher-Version"

	DefaultTimeout = 30 * time.Minute
)

// Client wraps a req client shared by the manifest fetcher and all download
// workers. It is safe for concurrent use.
type Client struct {
	http  *req.Client
	stats *httpStats
}

// New creates a client. timeout bounds a whole request including the body
// transfer; zero uses DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	stats := newHTTPStats()
	client := req.C().
		SetUserAgent(version.UserAgent()).
		SetCommonHeader(HeaderLauncherVersion, version.Version).
		SetTimeout(timeout).
		// files are written byte for byte, never transcoded
		DisableAutoDecode().
		OnBeforeRequest(func(_ *req.Client, _ *req.Request) error {
			stats.onRequest()
			return nil
		})

	return &Client{
		http:  client,
		stats: stats,
	}
}

// Stats returns the traffic counters accumulated by this client.
func (c *Client) Stats() HTTPStatsSnapshot {
	return c.stats.snapshot()
}
