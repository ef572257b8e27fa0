package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runOptions are host settings that do not belong in the saved config.
type runOptions struct {
	metricsAddr string
	debug       bool
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"client-root":  "client_root",
	"manifest-url": "manifest_url",
	"download-url": "download_base_url",
	"workers":      "workers",
	"retries":      "download_retries",
	"verify":       "verify_digests",
	"log-file":     "log_file",
}

// loadConfig merges, lowest first: built in defaults, the json config file,
// GENESIS_* environment variables and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *runOptions, error) {
	v := viper.New()
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, nil, fmt.Errorf("config read '%s': %w", configPath, err)
		}
		slog.Debug("no config file, using defaults", "path", configPath)
	}

	def := config.Default()
	v.SetDefault("client_root", def.ClientRoot)
	v.SetDefault("manifest_url", def.ManifestURL)
	v.SetDefault("download_base_url", def.DownloadBaseURL)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("snapshot_path", def.SnapshotPath)
	v.SetDefault("log_file", def.LogFile)

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("GENESIS")
	v.AutomaticEnv()

	cfg := &config.Config{
		ClientRoot:      v.GetString("client_root"),
		ManifestURL:     v.GetString("manifest_url"),
		DownloadBaseURL: v.GetString("download_base_url"),
		Workers:         v.GetInt("workers"),
		DownloadRetries: v.GetInt("download_retries"),
		VerifyDigests:   v.GetBool("verify_digests"),
		HashCacheSize:   v.GetInt("hash_cache_size"),
		Ignore:          v.GetStringSlice("ignore"),
		SnapshotPath:    v.GetString("snapshot_path"),
		LogFile:         v.GetString("log_file"),
		Path:            configPath,
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	metricsAddr, _ := flags.GetString("metrics-addr")
	debug, _ := flags.GetBool("debug")

	return cfg, &runOptions{metricsAddr: metricsAddr, debug: debug}, nil
}

// openLogFile adds a debug level file handler next to the console one. The
// returned func flushes and closes the file.
func openLogFile(path string, console io.Writer) (func(), error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	interceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(interceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// the interceptor stamps each line
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	prev := slog.Default()
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(newConsoleHandler(console), fileHandler)))

	return func() {
		slog.SetDefault(prev)
		interceptor.Close()
		file.Close()
	}, nil
}
