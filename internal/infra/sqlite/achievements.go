// Achievement definition and event vocabulary operations.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Achievement Operations ─────────────────────────────────────────────────

// UpsertAchievement inserts or updates a definition.
func (db *DB) UpsertAchievement(a domain.AchievementDefinition) error {
	if a.EventName == "" {
		return domain.ErrEmptyEventName
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := db.db.Exec(`
		INSERT INTO achievements (id, title, description, event_name, target, points, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			event_name  = excluded.event_name,
			target      = excluded.target,
			points      = excluded.points,
			status      = excluded.status,
			updated_at  = excluded.updated_at
	`, string(a.ID), a.Title, a.Description, a.EventName, a.Target, a.Points,
		string(a.Status), formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	return err
}

// GetAchievement retrieves one definition by id.
func (db *DB) GetAchievement(id domain.AchievementID) (*domain.AchievementDefinition, error) {
	row := db.db.QueryRow(`
		SELECT id, title, description, event_name, target, points, status, created_at, updated_at
		FROM achievements WHERE id = ?
	`, string(id))

	a, err := scanAchievement(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAchievements returns definitions, optionally filtered by status.
// No statuses means all. Ordered by creation time for deterministic listings;
// callers must not rely on the order for correctness.
func (db *DB) ListAchievements(statuses ...domain.PublicationStatus) ([]domain.AchievementDefinition, error) {
	query := `
		SELECT id, title, description, event_name, target, points, status, created_at, updated_at
		FROM achievements`
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

// ListAchievementsByEvent returns definitions bound to an event name with the
// given status, in creation order.
func (db *DB) ListAchievementsByEvent(eventName string, status domain.PublicationStatus) ([]domain.AchievementDefinition, error) {
	rows, err := db.db.Query(`
		SELECT id, title, description, event_name, target, points, status, created_at, updated_at
		FROM achievements WHERE event_name = ? AND status = ?
		ORDER BY created_at, id
	`, eventName, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

// SetAchievementStatus changes publication status (publish/trash).
func (db *DB) SetAchievementStatus(id domain.AchievementID, status domain.PublicationStatus) error {
	res, err := db.db.Exec(`
		UPDATE achievements SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(time.Now()), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAchievementNotFound
	}
	return nil
}

// DeleteAchievement removes a definition outright. Trashing via
// SetAchievementStatus is the usual path; this is for permanent removal.
// Progress records are left in place — they reference an id that Get will
// now report as not found, which the engine skips per candidate.
func (db *DB) DeleteAchievement(id domain.AchievementID) error {
	res, err := db.db.Exec(`DELETE FROM achievements WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAchievementNotFound
	}
	return nil
}

// ─── Event Vocabulary Operations ────────────────────────────────────────────

// UpsertEvent adds or updates an entry in the event vocabulary. A bare manual
// entry (no description, no source) never overwrites what an extension
// registered for the same name; richer entries update in place.
func (db *DB) UpsertEvent(e domain.EventDefinition) error {
	if e.Name == "" {
		return fmt.Errorf("event name required")
	}
	if e.Source == "" {
		e.Source = "manual"
	}
	_, err := db.db.Exec(`
		INSERT INTO events (name, description, source)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = CASE WHEN excluded.description = '' THEN events.description ELSE excluded.description END,
			source      = CASE WHEN excluded.source = 'manual' THEN events.source ELSE excluded.source END
	`, e.Name, e.Description, e.Source)
	return err
}

// ListEvents returns the full event vocabulary.
func (db *DB) ListEvents() ([]domain.EventDefinition, error) {
	rows, err := db.db.Query(`SELECT name, description, source FROM events ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.EventDefinition
	for rows.Next() {
		var e domain.EventDefinition
		if err := rows.Scan(&e.Name, &e.Description, &e.Source); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAchievement(row rowScanner) (*domain.AchievementDefinition, error) {
	var a domain.AchievementDefinition
	var id, status, createdAt, updatedAt string
	if err := row.Scan(&id, &a.Title, &a.Description, &a.EventName, &a.Target,
		&a.Points, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.ID = domain.AchievementID(id)
	a.Status = domain.PublicationStatus(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func scanAchievements(rows *sql.Rows) ([]domain.AchievementDefinition, error) {
	var result []domain.AchievementDefinition
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
