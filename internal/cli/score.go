package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/laurelhq/laurels/internal/app/engine"
	"github.com/laurelhq/laurels/internal/domain"
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().Int("limit", 10, "Number of entries to show")
}

// ─── score ──────────────────────────────────────────────────────────────────

var scoreCmd = &cobra.Command{
	Use:   "score USER_ID",
	Short: "Show a user's score and unlocked achievements",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ledger := engine.NewLedger(db)
	total, err := ledger.Total(domain.UserID(userID))
	if err != nil {
		return err
	}
	recs, err := db.ListProgress(domain.UserID(userID))
	if err != nil {
		return err
	}

	var unlocked, inProgress int
	for _, r := range recs {
		if r.Unlocked() {
			unlocked++
		} else {
			inProgress++
		}
	}

	fmt.Fprintf(os.Stdout, "User %d: %d points, %d unlocked, %d in progress\n", userID, total, unlocked, inProgress)
	return nil
}

// ─── leaderboard ────────────────────────────────────────────────────────────

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top user scores",
	RunE:  runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	top, err := engine.NewLedger(db).Top(limit)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Fprintln(os.Stdout, "No scores yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tPOINTS")
	for i, s := range top {
		fmt.Fprintf(w, "%d\t%d\t%d\n", i+1, s.UserID, s.Total)
	}
	return w.Flush()
}
