package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/genesisproj/launcher/internal/utils"
)

// WriteSnapshot persists m at path via a temp file and rename so readers
// never observe a half written snapshot.
func WriteSnapshot(path string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}

	if err := utils.EnsureParent(path); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("snapshot temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. An empty file reads
// as an empty manifest.
func ReadSnapshot(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return New(), nil
	}
	return Parse(data)
}
