package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/genesisproj/launcher/internal/utils"
	"github.com/goccy/go-json"
)

const (
	ProductFolder  = "genesisproject-client"
	launcherFolder = "genesis-launcher"
	snapshotFile   = "local_file_list.json"
	logFile        = "launcher.log"

	DefaultWorkers = 8
	MaxWorkers     = 64
)

var (
	DefaultManifestURL     = "https://genesisproj.online/downloads/genesisproject-client/file_list.json"
	DefaultDownloadBaseURL = "https://genesisproj.online/downloads/genesisproject-client"

	// DefaultClientRoot is the platform user data directory joined with the product folder.
	DefaultClientRoot   = filepath.Join(xdg.DataHome, ProductFolder)
	DefaultStateDir     = filepath.Join(xdg.StateHome, launcherFolder)
	DefaultConfigPath   = filepath.Join(xdg.ConfigHome, launcherFolder, "config.json")
	DefaultSnapshotPath = filepath.Join(DefaultStateDir, snapshotFile)
	DefaultLogFilePath  = filepath.Join(DefaultStateDir, logFile)
)

var (
	ErrNoManifestURL = errors.New("config: manifest url missing")
	ErrNoDownloadURL = errors.New("config: download base url missing")
	ErrBadWorkers    = errors.New("config: workers out of range")
)

// Config holds everything one sync run needs. It replaces process wide path
// and url constants; every component receives the values it uses at
// construction time.
type Config struct {
	ClientRoot      string   `json:"client_root"`
	ManifestURL     string   `json:"manifest_url"`
	DownloadBaseURL string   `json:"download_base_url"`
	Workers         int      `json:"workers"`
	DownloadRetries int      `json:"download_retries"`
	VerifyDigests   bool     `json:"verify_digests"`
	HashCacheSize   int      `json:"hash_cache_size"`
	Ignore          []string `json:"ignore,omitempty"`
	SnapshotPath    string   `json:"snapshot_path"`
	LogFile         string   `json:"log_file"`
	Path            string   `json:"-"`
}

// Default returns a config pointing at the production CDN.
func Default() *Config {
	return &Config{
		ClientRoot:      DefaultClientRoot,
		ManifestURL:     DefaultManifestURL,
		DownloadBaseURL: DefaultDownloadBaseURL,
		Workers:         DefaultWorkers,
		SnapshotPath:    DefaultSnapshotPath,
		LogFile:         DefaultLogFilePath,
		Path:            DefaultConfigPath,
	}
}

// Validate fills defaults, resolves paths to absolute form and rejects
// values no run could use.
func (c *Config) Validate() error {
	var err error

	if c.ClientRoot == "" {
		c.ClientRoot = DefaultClientRoot
	}
	if c.ClientRoot, err = utils.ResolvePath(c.ClientRoot); err != nil {
		return fmt.Errorf("config: client root: %w", err)
	}

	if c.SnapshotPath == "" {
		c.SnapshotPath = DefaultSnapshotPath
	}
	if c.SnapshotPath, err = utils.ResolvePath(c.SnapshotPath); err != nil {
		return fmt.Errorf("config: snapshot path: %w", err)
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFilePath
	}
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("config: log file: %w", err)
	}

	if c.Path != "" {
		if c.Path, err = utils.ResolvePath(c.Path); err != nil {
			return fmt.Errorf("config: path: %w", err)
		}
	}

	if c.ManifestURL == "" {
		return ErrNoManifestURL
	}
	if err := utils.ValidateHTTPURL(c.ManifestURL); err != nil {
		return fmt.Errorf("config: invalid manifest url %q: %w", c.ManifestURL, err)
	}

	if c.DownloadBaseURL == "" {
		return ErrNoDownloadURL
	}
	c.DownloadBaseURL = strings.TrimRight(c.DownloadBaseURL, "/")
	if err := utils.ValidateHTTPURL(c.DownloadBaseURL); err != nil {
		return fmt.Errorf("config: invalid download base url %q: %w", c.DownloadBaseURL, err)
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: %d (1-%d)", ErrBadWorkers, c.Workers, MaxWorkers)
	}

	if c.DownloadRetries < 0 {
		return fmt.Errorf("config: download retries must be >= 0, got %d", c.DownloadRetries)
	}
	if c.HashCacheSize < 0 {
		return fmt.Errorf("config: hash cache size must be >= 0, got %d", c.HashCacheSize)
	}

	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("config: invalid ignore pattern %q", pattern)
		}
	}

	return nil
}

// Save writes the config as json to c.Path.
func (c *Config) Save() error {
	if c.Path == "" {
		return errors.New("config: path missing")
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0o644)
}

// LoadFromFile reads a config saved by Save. The result is not validated.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.Path = path
	return &cfg, nil
}
