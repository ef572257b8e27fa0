// Package clientdir guards the client root so only one launcher updates it at
// a time.
package clientdir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/genesisproj/launcher/internal/utils"
	"github.com/gofrs/flock"
)

// LockFileName lives directly under the root; inventory scans skip it.
const LockFileName = ".launcher.lock"

var ErrLocked = errors.New("client directory locked by another launcher")

type ClientDir struct {
	Root  string
	flock *flock.Flock
}

func New(root string) (*ClientDir, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	return &ClientDir{
		Root:  resolved,
		flock: flock.New(filepath.Join(resolved, LockFileName)),
	}, nil
}

// Lock creates the root if needed and takes an exclusive, non-blocking lock.
func (d *ClientDir) Lock() error {
	if err := utils.EnsureDir(d.Root); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.Root, err)
	}

	locked, err := d.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock client directory: %w", err)
	}
	if !locked {
		return ErrLocked
	}

	slog.Debug("client directory locked", "root", d.Root)
	return nil
}

func (d *ClientDir) Unlock() error {
	// only the holder removes the lock file
	if !d.flock.Locked() {
		return nil
	}

	if err := d.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock client directory: %w", err)
	}

	if err := os.Remove(d.flock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
