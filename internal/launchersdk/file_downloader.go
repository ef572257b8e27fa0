package launchersdk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/genesisproj/launcher/internal/utils"
)

var (
	renameFile  = os.Rename
	runtimeGOOS = runtime.GOOS
)

const (
	renameRetries  = 5
	renameBackoff  = 50 * time.Millisecond
	copyBufferSize = 256 * 1024

	newFileMode fs.FileMode = 0o644
)

// DownloadFile streams job.URL into job.Dest. The body goes to a staging file
// next to Dest which is synced and renamed over Dest only after the transfer
// completes, so a failed download never leaves a truncated file in place.
func (c *Client) DownloadFile(ctx context.Context, job *DownloadJob) (*DownloadResult, error) {
	const op = "download file"

	if err := utils.EnsureParent(job.Dest); err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(job.URL)
	if err != nil {
		if resp != nil && resp.Response != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, c.fail(newError(CodeNetwork, op, job.URL, err))
	}
	defer resp.Body.Close()

	if !resp.IsSuccessState() {
		sdkErr := newError(CodeNetwork, op, job.URL, errors.New(resp.Status))
		sdkErr.StatusCode = resp.GetStatusCode()
		return nil, c.fail(sdkErr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(job.Dest), filepath.Base(job.Dest)+stagingInfix+"*")
	if err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	dst := &errWriter{w: io.MultiWriter(tmp, hasher)}
	src := &countingReader{r: resp.Body, onRead: c.stats.onRecv}

	n, err := io.CopyBuffer(dst, src, make([]byte, copyBufferSize))
	if err != nil {
		if dst.err != nil {
			return nil, c.fail(newError(CodeIO, op, job.Dest, err))
		}
		return nil, c.fail(newError(CodeNetwork, op, job.URL, err))
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if job.ExpectedDigest != "" && digest != job.ExpectedDigest {
		return nil, c.fail(newError(CodeIntegrity, op, job.URL,
			fmt.Errorf("expected %s got %s", job.ExpectedDigest, digest)))
	}

	if err := tmp.Chmod(targetMode(job.Dest)); err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}
	if err := tmp.Sync(); err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}
	if err := tmp.Close(); err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}
	if err := replaceFile(tmpPath, job.Dest); err != nil {
		return nil, c.fail(newError(CodeIO, op, job.Dest, err))
	}

	success = true
	return &DownloadResult{Bytes: n, Digest: digest}, nil
}

// targetMode is the permission the replacement should carry: the current
// file's when one exists, newFileMode otherwise.
func targetMode(dest string) fs.FileMode {
	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return newFileMode
}

// replaceFile renames src over dst. Windows reports transient failures while
// another process (AV scanners, the game itself) holds dst open.
func replaceFile(src, dst string) error {
	var err error
	for attempt := 0; attempt < renameRetries; attempt++ {
		err = renameFile(src, dst)
		if err == nil {
			return nil
		}
		if runtimeGOOS != "windows" || !(errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrPermission)) {
			return err
		}
		time.Sleep(renameBackoff * time.Duration(attempt+1))
	}
	return err
}

// errWriter remembers write failures so copy errors can be attributed to the
// disk rather than the network.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
