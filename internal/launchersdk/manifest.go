package launchersdk

import (
	"context"
	"errors"
	"log/slog"

	"github.com/genesisproj/launcher/internal/manifest"
)

var errEmptyManifest = errors.New("manifest has no entries")

// FetchManifest downloads and parses the published file list. It returns
// either a complete manifest or an *Error coded CodeNetwork or CodeFormat.
func (c *Client) FetchManifest(ctx context.Context, url string) (*manifest.Manifest, error) {
	const op = "fetch manifest"

	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, c.fail(newError(CodeNetwork, op, url, err))
	}

	if !resp.IsSuccessState() {
		sdkErr := newError(CodeNetwork, op, url, errors.New(resp.Status))
		sdkErr.StatusCode = resp.GetStatusCode()
		return nil, c.fail(sdkErr)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, c.fail(newError(CodeNetwork, op, url, err))
	}
	c.stats.onRecv(len(body))

	m, err := manifest.Parse(body)
	if err != nil {
		return nil, c.fail(newError(CodeFormat, op, url, err))
	}
	if m.Len() == 0 {
		return nil, c.fail(newError(CodeFormat, op, url, errEmptyManifest))
	}

	slog.Debug("manifest fetched", "url", url, "entries", m.Len(), "bytes", len(body))
	return m, nil
}

func (c *Client) fail(err *Error) error {
	c.stats.onError(err)
	return err
}
