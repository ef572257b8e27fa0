package updater

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/genesisproj/launcher/internal/clientdir"
	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/launchersdk"
	"github.com/genesisproj/launcher/internal/manifest"
	"github.com/genesisproj/launcher/internal/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedDigest struct {
	size    int64
	modTime time.Time
	digest  string
}

// InventoryBuilder hashes every regular file under the client root.
type InventoryBuilder struct {
	root         string
	snapshotPath string
	ignore       []string
	skip         mapset.Set[string]

	// nil unless HashCacheSize > 0
	cache *lru.Cache[string, cachedDigest]
}

func NewInventoryBuilder(cfg *config.Config) (*InventoryBuilder, error) {
	b := &InventoryBuilder{
		root:         cfg.ClientRoot,
		snapshotPath: cfg.SnapshotPath,
		ignore:       append([]string{launchersdk.StagingPattern}, cfg.Ignore...),
		skip:         mapset.NewThreadUnsafeSet(clientdir.LockFileName),
	}

	// a snapshot stored inside the client root must not list itself
	if cfg.SnapshotPath != "" {
		if rel, err := filepath.Rel(cfg.ClientRoot, cfg.SnapshotPath); err == nil && !strings.HasPrefix(rel, "..") {
			b.skip.Add(utils.NormPath(rel))
		}
	}

	if cfg.HashCacheSize > 0 {
		cache, err := lru.New[string, cachedDigest](cfg.HashCacheSize)
		if err != nil {
			return nil, fmt.Errorf("inventory cache: %w", err)
		}
		b.cache = cache
	}

	return b, nil
}

// Build walks the client root and returns path -> digest for every regular
// file. A missing root is created and reads as empty. Files that cannot be
// hashed are logged and left out. The result is also written to the
// snapshot path; that write is best effort.
//
// On error the returned manifest is empty, never nil.
func (b *InventoryBuilder) Build(ctx context.Context) (*manifest.Manifest, error) {
	if err := utils.EnsureDir(b.root); err != nil {
		return manifest.New(), fmt.Errorf("inventory: create root %q: %w", b.root, err)
	}

	m := manifest.New()
	skipped := 0

	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == b.root {
				return walkErr
			}
			slog.Warn("inventory walk error", "path", path, "error", walkErr)
			skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}
		rel = utils.NormPath(rel)

		if b.ignored(rel) {
			return nil
		}

		digest, err := b.digest(rel, path, d)
		if err != nil {
			if IsNotFound(err) {
				slog.Debug("file vanished during inventory", "path", rel)
			} else {
				slog.Warn("failed to hash file", "path", rel, "error", err)
			}
			skipped++
			return nil
		}

		m.Set(manifest.FileRecord{Path: rel, Digest: digest})
		return nil
	})
	if err != nil {
		return manifest.New(), fmt.Errorf("inventory: scan %q: %w", b.root, err)
	}

	slog.Info("local inventory built", "root", b.root, "files", m.Len(), "skipped", skipped)

	if b.snapshotPath != "" {
		if err := manifest.WriteSnapshot(b.snapshotPath, m); err != nil {
			slog.Warn("failed to write local inventory snapshot", "path", b.snapshotPath, "error", err)
		} else {
			slog.Debug("local inventory snapshot written", "path", b.snapshotPath)
		}
	}

	return m, nil
}

func (b *InventoryBuilder) ignored(rel string) bool {
	if b.skip.Contains(rel) {
		return true
	}
	for _, pattern := range b.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (b *InventoryBuilder) digest(rel, path string, d fs.DirEntry) (string, error) {
	if b.cache == nil {
		return HashFile(path)
	}

	info, err := d.Info()
	if err != nil {
		return "", err
	}

	if prev, ok := b.cache.Get(rel); ok && prev.size == info.Size() && prev.modTime.Equal(info.ModTime()) {
		return prev.digest, nil
	}

	digest, err := HashFile(path)
	if err != nil {
		b.cache.Remove(rel)
		return "", err
	}
	b.cache.Add(rel, cachedDigest{size: info.Size(), modTime: info.ModTime(), digest: digest})
	return digest, nil
}
