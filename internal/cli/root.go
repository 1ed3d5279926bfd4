// Package cli implements the foundation command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/app/tracker"
	"github.com/foundation-app/foundation/internal/daemon"
	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/redisstore"
	"github.com/foundation-app/foundation/internal/infra/sqlite"
	"github.com/foundation-app/foundation/internal/infra/store"
	"github.com/foundation-app/foundation/internal/logger"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

var (
	flagHome     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "foundation",
	Short: "Track grades, earn credits, spend them on rewards",
	Long: `Foundation turns good grades and study sessions into credits you can
spend on rewards you define yourself. Everything is stored locally.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Data directory (default $FOUNDATION_HOME or ~/.foundation)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ─── Application Bootstrap ──────────────────────────────────────────────────

type app struct {
	home    string
	cfg     daemon.Config
	log     zerolog.Logger
	tracker *tracker.Tracker
	close   func() error
}

func homeDir() string {
	if flagHome != "" {
		return flagHome
	}
	return daemon.Home()
}

// openApp loads config, opens the configured backend and the tracker.
// One-shot commands log at warn unless --log-level says otherwise.
func openApp(ctx context.Context, quiet bool) (*app, error) {
	home := homeDir()
	cfg, err := daemon.Load(home)
	if err != nil {
		return nil, err
	}

	log := setupLogger(cfg, quiet)

	kv, journal, closeFn, err := openBackend(ctx, cfg.Storage, home)
	if err != nil {
		return nil, err
	}
	t := tracker.Open(ctx, store.New(kv, log), log, tracker.WithJournal(journal))
	if t.Detached() {
		log.Warn().Msg("changes in this session will not be saved")
	}

	return &app{home: home, cfg: cfg, log: log, tracker: t, close: closeFn}, nil
}

func setupLogger(cfg daemon.Config, quiet bool) zerolog.Logger {
	level := cfg.Log.Level
	if quiet {
		level = "warn"
	}
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logger.Setup(level, cfg.Log.Format)
}

func openBackend(ctx context.Context, sc daemon.StorageConfig, home string) (domain.KVStore, domain.Journal, func() error, error) {
	switch sc.Driver {
	case "redis":
		rs, err := redisstore.Open(ctx, sc.RedisURL, sc.JournalLimit)
		if err != nil {
			return nil, nil, nil, err
		}
		return rs, rs, rs.Close, nil
	default:
		db, err := sqlite.Open(home)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open store: %w", err)
		}
		db.SetJournalLimit(sc.JournalLimit)
		return db, db, db.Close, nil
	}
}

// withApp opens the app for a one-shot command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// ─── version ────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "foundation %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
