package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_Defaults(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		ClientRoot:      filepath.Join(tmp, "client"),
		ManifestURL:     "http://127.0.0.1:8080/file_list.json",
		DownloadBaseURL: "http://127.0.0.1:8080/files/",
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "http://127.0.0.1:8080/files", cfg.DownloadBaseURL)
	assert.True(t, filepath.IsAbs(cfg.ClientRoot))
	assert.True(t, filepath.IsAbs(cfg.SnapshotPath))
	assert.True(t, filepath.IsAbs(cfg.LogFile))
	assert.Zero(t, cfg.DownloadRetries)
	assert.False(t, cfg.VerifyDigests)
}

func TestConfig_Validate_Default(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProductFolder, filepath.Base(cfg.ClientRoot))
}

func TestConfig_Validate_Errors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ClientRoot:      t.TempDir(),
			ManifestURL:     "https://cdn.example.com/file_list.json",
			DownloadBaseURL: "https://cdn.example.com/client",
		}
	}

	t.Run("missing manifest url", func(t *testing.T) {
		cfg := valid()
		cfg.ManifestURL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrNoManifestURL)
	})

	t.Run("bad manifest url", func(t *testing.T) {
		cfg := valid()
		cfg.ManifestURL = "ftp://cdn.example.com/list.json"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest url")
	})

	t.Run("missing download url", func(t *testing.T) {
		cfg := valid()
		cfg.DownloadBaseURL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrNoDownloadURL)
	})

	t.Run("too many workers", func(t *testing.T) {
		cfg := valid()
		cfg.Workers = MaxWorkers + 1
		assert.ErrorIs(t, cfg.Validate(), ErrBadWorkers)
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.DownloadRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad ignore pattern", func(t *testing.T) {
		cfg := valid()
		cfg.Ignore = []string{"saves/[unclosed"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ignore pattern")
	})
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.json")

	cfg := &Config{
		ClientRoot:      filepath.Join(tmp, "client"),
		ManifestURL:     "https://cdn.example.com/file_list.json",
		DownloadBaseURL: "https://cdn.example.com/client",
		Workers:         4,
		DownloadRetries: 2,
		VerifyDigests:   true,
		Ignore:          []string{"screenshots/**"},
		Path:            path,
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
