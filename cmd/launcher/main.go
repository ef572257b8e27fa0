package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/genesisproj/launcher/internal/config"
	"github.com/genesisproj/launcher/internal/version"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "launcher",
	Short:   "Genesis Project client updater",
	Version: version.Detailed(),
	// bare "launcher" behaves like "launcher sync"
	RunE: syncCmdRunE,
}

func init() {
	addSyncFlags(rootCmd)
}

// addSyncFlags registers the sync flags as persistent so subcommands inherit
// them.
func addSyncFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", config.DefaultConfigPath, "Launcher config file")
	flags.StringP("client-root", "r", config.DefaultClientRoot, "Client installation directory")
	flags.StringP("manifest-url", "m", config.DefaultManifestURL, "Remote file list url")
	flags.StringP("download-url", "u", config.DefaultDownloadBaseURL, "Base url for file downloads")
	flags.IntP("workers", "w", config.DefaultWorkers, "Concurrent downloads")
	flags.Int("retries", 0, "Extra attempts per failed download")
	flags.Bool("verify", false, "Check the digest of every downloaded file")
	flags.String("log-file", config.DefaultLogFilePath, "Log file, rewritten on every run")
	flags.String("metrics-addr", "", "Serve prometheus metrics on this address during the run")
	flags.Bool("debug", false, "Enable debug logging on the console")
}

// consoleLevel is shared by every console handler so --debug applies after
// the logger is built.
var consoleLevel = new(slog.LevelVar)

func main() {
	os.Exit(run())
}

// run keeps deferred cleanup ahead of os.Exit.
func run() int {
	// .env is optional
	_ = godotenv.Load()

	// console only until the config names a log file
	slog.SetDefault(slog.New(newConsoleHandler(os.Stdout)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newConsoleHandler(w io.Writer) slog.Handler {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd())
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    !colored,
	})
}

func setLogLevel(debug bool) {
	if debug {
		consoleLevel.Set(slog.LevelDebug)
	} else {
		consoleLevel.Set(slog.LevelInfo)
	}
}
