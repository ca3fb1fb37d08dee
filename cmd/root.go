package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepzone/internal/config"
	"github.com/abhisek/prepzone/internal/logger"
	"github.com/abhisek/prepzone/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "prepzone",
	Short: "Timed mock tests in your terminal",
	Long:  "PrepZone - terminal client for practising timed, proctored exam-prep tests.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file (default $XDG_CONFIG_HOME/prepzone/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PREPZONE_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.DBPath = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag or the config
// file (highest priority), then PREPZONE_DB env var, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.DBPath; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the history database named by cfg.
func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newLogger returns a logger writing to the configured file. The closer
// must be called on exit. A log file that cannot be opened disables
// logging rather than failing the command.
func newLogger(cfg *config.Config, errOut io.Writer) (zerolog.Logger, func()) {
	if cfg.Log.File == "" {
		return zerolog.Nop(), func() {}
	}
	f, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		fmt.Fprintln(errOut, "Logging disabled:", err)
		return zerolog.Nop(), func() {}
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format, f)
	return log, func() { _ = f.Close() }
}
