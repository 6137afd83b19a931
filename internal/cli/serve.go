package cli

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/laurelhq/laurels/internal/api"
	"github.com/laurelhq/laurels/internal/app/bus"
	"github.com/laurelhq/laurels/internal/app/engine"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the laurels HTTP server",
	Long: `Start the laurels server. Hosts raise events against the HTTP API;
the engine matches them to published achievements and records unlocks.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, cfg, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}

	hooks := &engine.Hooks{}
	ledger := engine.NewLedger(db)
	notify := engine.NewNotificationService(db)
	eng := engine.New(engine.NewCatalog(db), db, ledger, notify, hooks)
	registry := engine.NewRegistry(db)
	b := bus.New()
	dispatcher := engine.NewDispatcher(b, registry, eng, nil, hooks)

	if err := registry.Refresh(); err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}
	dispatcher.BindAll()

	srv := api.NewServer(db, b, registry, dispatcher, eng, ledger, notify)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}
	srv.SetLimits(cfg.Engine.MaxNotifications, cfg.Engine.LeaderboardTopN)

	log.Printf("[serve] database at %s", cfg.Storage.Dir)
	log.Printf("[serve] %d events bound", dispatcher.BoundEvents())
	fmt.Fprintf(os.Stdout, "laurels %s listening on %s\n", api.Version, cfg.API.Addr())

	return http.ListenAndServe(cfg.API.Addr(), srv.Handler())
}
