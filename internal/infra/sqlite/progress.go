// Progress record and score operations.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Progress Operations ────────────────────────────────────────────────────

// GetProgress returns the record for a (user, achievement) pair, or
// ErrProgressNotFound if the user has no record yet.
func (db *DB) GetProgress(userID domain.UserID, achievementID domain.AchievementID) (*domain.ProgressRecord, error) {
	var rec domain.ProgressRecord
	var id, achID, status, updatedAt string
	err := db.db.QueryRow(`
		SELECT id, achievement_id, counter, status, updated_at
		FROM progress WHERE user_id = ? AND achievement_id = ?
	`, int64(userID), string(achievementID)).Scan(&id, &achID, &rec.Counter, &status, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.UserID = userID
	rec.AchievementID = domain.AchievementID(achID)
	rec.Status = domain.ProgressStatus(status)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// UpsertProgress writes a record keyed by (user, achievement) and returns its
// id. The UNIQUE(user_id, achievement_id) constraint keeps the at-most-one
// invariant; a conflicting write updates the existing row (last write wins
// per key — callers serialize concurrent writers for the same key).
func (db *DB) UpsertProgress(rec domain.ProgressRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.UpdatedAt = time.Now()

	_, err := db.db.Exec(`
		INSERT INTO progress (id, user_id, achievement_id, counter, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			counter    = excluded.counter,
			status     = excluded.status,
			updated_at = excluded.updated_at
	`, rec.ID, int64(rec.UserID), string(rec.AchievementID), rec.Counter,
		string(rec.Status), formatTime(rec.UpdatedAt))
	if err != nil {
		return "", err
	}

	// On conflict the original row id survives; report that one.
	var id string
	err = db.db.QueryRow(`
		SELECT id FROM progress WHERE user_id = ? AND achievement_id = ?
	`, int64(rec.UserID), string(rec.AchievementID)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListProgress returns all of a user's progress records, most recent first.
func (db *DB) ListProgress(userID domain.UserID) ([]domain.ProgressRecord, error) {
	rows, err := db.db.Query(`
		SELECT id, achievement_id, counter, status, updated_at
		FROM progress WHERE user_id = ?
		ORDER BY updated_at DESC, id
	`, int64(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProgressRecord
	for rows.Next() {
		var rec domain.ProgressRecord
		var id, achID, status, updatedAt string
		if err := rows.Scan(&id, &achID, &rec.Counter, &status, &updatedAt); err != nil {
			return nil, err
		}
		rec.ID = id
		rec.UserID = userID
		rec.AchievementID = domain.AchievementID(achID)
		rec.Status = domain.ProgressStatus(status)
		rec.UpdatedAt = parseTime(updatedAt)
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ─── Score Operations ───────────────────────────────────────────────────────

// GetScore returns a user's running total (0 if no row yet).
func (db *DB) GetScore(userID domain.UserID) (int64, error) {
	var total int64
	err := db.db.QueryRow(`SELECT total FROM scores WHERE user_id = ?`, int64(userID)).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return total, err
}

// SetScore writes a user's running total.
func (db *DB) SetScore(userID domain.UserID, total int64) error {
	_, err := db.db.Exec(`
		INSERT INTO scores (user_id, total) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET total = excluded.total
	`, int64(userID), total)
	return err
}

// TopScores returns the highest totals, descending.
func (db *DB) TopScores(limit int) ([]domain.UserScore, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(`
		SELECT user_id, total FROM scores ORDER BY total DESC, user_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserScore
	for rows.Next() {
		var s domain.UserScore
		var uid int64
		if err := rows.Scan(&uid, &s.Total); err != nil {
			return nil, err
		}
		s.UserID = domain.UserID(uid)
		result = append(result, s)
	}
	return result, rows.Err()
}
