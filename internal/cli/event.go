package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/laurelhq/laurels/internal/app/bus"
	"github.com/laurelhq/laurels/internal/app/engine"
	"github.com/laurelhq/laurels/internal/domain"
)

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventRaiseCmd)
	eventCmd.AddCommand(eventListCmd)

	eventRaiseCmd.Flags().Int64("user", 0, "Acting user id (required)")
	eventRaiseCmd.MarkFlagRequired("user")
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Raise and inspect events",
}

// ─── event raise ────────────────────────────────────────────────────────────

var eventRaiseCmd = &cobra.Command{
	Use:   "raise EVENT_NAME",
	Short: "Raise an event occurrence for a user",
	Long: `Raise an event occurrence against the local database, running the full
unlock pipeline in-process. Useful for testing definitions and for hosts
that integrate via shell rather than HTTP.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventRaise,
}

func runEventRaise(cmd *cobra.Command, args []string) error {
	eventName := args[0]
	userID, _ := cmd.Flags().GetInt64("user")
	if userID <= 0 {
		return fmt.Errorf("--user must be a positive user id")
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	hooks := &engine.Hooks{}
	ledger := engine.NewLedger(db)
	eng := engine.New(engine.NewCatalog(db), db, ledger, engine.NewNotificationService(db), hooks)
	registry := engine.NewRegistry(db)
	b := bus.New()
	dispatcher := engine.NewDispatcher(b, registry, eng, nil, hooks)

	if err := registry.Refresh(); err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}
	dispatcher.BindAll()

	ctx := engine.WithActor(context.Background(), domain.UserID(userID))
	if err := b.Raise(ctx, eventName); err != nil {
		return fmt.Errorf("raise %s: %w", eventName, err)
	}

	total, err := ledger.Total(domain.UserID(userID))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Raised %s for user %d (score now %d)\n", eventName, userID, total)
	return nil
}

// ─── event list ─────────────────────────────────────────────────────────────

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the event vocabulary",
	RunE:  runEventList,
}

func runEventList(cmd *cobra.Command, args []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := db.ListEvents()
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No events registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
	for _, e := range events {
		source := e.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, source, e.Description)
	}
	return w.Flush()
}
