// Package cli implements the laurels command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/laurelhq/laurels/internal/api"
	"github.com/laurelhq/laurels/internal/daemon"
	"github.com/laurelhq/laurels/internal/infra/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "laurels",
	Short: "Achievement engine for host applications",
	Long: `laurels tracks user achievements: host applications raise named events,
laurels matches them against published achievement definitions, advances
per-user progress counters, unlocks achievements at most once, and keeps
a running score per user.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.laurels/config.toml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the laurels version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "laurels %s\n", api.Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// loadConfig reads the config file named by --config, falling back to the
// default path and then to built-in defaults.
func loadConfig() (daemon.Config, error) {
	return daemon.Load(configPath)
}

// openDB opens the database at the configured storage directory.
func openDB() (*sqlite.DB, daemon.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, cfg, fmt.Errorf("open database: %w", err)
	}
	return db, cfg, nil
}
