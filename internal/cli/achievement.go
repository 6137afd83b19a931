package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/laurelhq/laurels/internal/domain"
)

func init() {
	rootCmd.AddCommand(achievementCmd)
	achievementCmd.AddCommand(achievementCreateCmd)
	achievementCmd.AddCommand(achievementListCmd)
	achievementCmd.AddCommand(achievementPublishCmd)
	achievementCmd.AddCommand(achievementTrashCmd)

	achievementCreateCmd.Flags().String("title", "", "Achievement title (required)")
	achievementCreateCmd.Flags().String("description", "", "Achievement description")
	achievementCreateCmd.Flags().String("event", "", "Event name this achievement is bound to (required)")
	achievementCreateCmd.Flags().Int("target", 0, "Occurrences required to unlock (0 = unlock on first)")
	achievementCreateCmd.Flags().Int64("points", 0, "Points awarded on unlock")
	achievementCreateCmd.Flags().Bool("publish", false, "Publish immediately instead of creating a draft")
	achievementCreateCmd.MarkFlagRequired("title")
	achievementCreateCmd.MarkFlagRequired("event")

	achievementListCmd.Flags().String("status", "", "Filter by status (draft, published, trashed)")
}

var achievementCmd = &cobra.Command{
	Use:   "achievement",
	Short: "Manage achievement definitions",
}

// ─── achievement create ─────────────────────────────────────────────────────

var achievementCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an achievement definition",
	RunE:  runAchievementCreate,
}

func runAchievementCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	event, _ := cmd.Flags().GetString("event")
	target, _ := cmd.Flags().GetInt("target")
	points, _ := cmd.Flags().GetInt64("points")
	publish, _ := cmd.Flags().GetBool("publish")

	if target < 0 || points < 0 {
		return fmt.Errorf("target and points must be non-negative")
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	status := domain.StatusDraft
	if publish {
		status = domain.StatusPublished
	}
	a := domain.AchievementDefinition{
		ID:          domain.AchievementID(uuid.NewString()),
		Title:       title,
		Description: description,
		EventName:   event,
		Target:      target,
		Points:      points,
		Status:      status,
	}
	if err := db.UpsertAchievement(a); err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	if err := db.UpsertEvent(domain.EventDefinition{Name: event}); err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created %s achievement %s (%s)\n", status, title, a.ID)
	return nil
}

// ─── achievement list ───────────────────────────────────────────────────────

var achievementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List achievement definitions",
	RunE:  runAchievementList,
}

func runAchievementList(cmd *cobra.Command, args []string) error {
	statusFlag, _ := cmd.Flags().GetString("status")

	var statuses []domain.PublicationStatus
	if statusFlag != "" {
		status := domain.PublicationStatus(statusFlag)
		switch status {
		case domain.StatusDraft, domain.StatusPublished, domain.StatusTrashed:
			statuses = append(statuses, status)
		default:
			return fmt.Errorf("unknown status %q", statusFlag)
		}
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := db.ListAchievements(statuses...)
	if err != nil {
		return fmt.Errorf("list achievements: %w", err)
	}
	if len(defs) == 0 {
		fmt.Fprintln(os.Stdout, "No achievements defined.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tEVENT\tTARGET\tPOINTS\tSTATUS")
	for _, d := range defs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", d.ID, d.Title, d.EventName, d.Target, d.Points, d.Status)
	}
	return w.Flush()
}

// ─── achievement publish / trash ────────────────────────────────────────────

var achievementPublishCmd = &cobra.Command{
	Use:   "publish ACHIEVEMENT_ID",
	Short: "Publish an achievement so events can unlock it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAchievementStatus(args[0], domain.StatusPublished)
	},
}

var achievementTrashCmd = &cobra.Command{
	Use:   "trash ACHIEVEMENT_ID",
	Short: "Move an achievement to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAchievementStatus(args[0], domain.StatusTrashed)
	},
}

func setAchievementStatus(id string, status domain.PublicationStatus) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetAchievementStatus(domain.AchievementID(id), status); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Achievement %s is now %s.\n", id, status)
	return nil
}
