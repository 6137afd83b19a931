// Unlock notification and extension version operations.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Notification Operations ────────────────────────────────────────────────

// InsertNotification records an unlock notification for a user.
func (db *DB) InsertNotification(userID domain.UserID, achievementID domain.AchievementID) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO notifications (user_id, achievement_id, created_at)
		VALUES (?, ?, ?)
	`, int64(userID), string(achievementID), formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PendingNotifications returns a user's unseen notifications, oldest first.
func (db *DB) PendingNotifications(userID domain.UserID, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.db.Query(`
		SELECT id, achievement_id, created_at, seen
		FROM notifications WHERE user_id = ? AND seen = 0
		ORDER BY created_at, id LIMIT ?
	`, int64(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var achID, createdAt string
		var seen int
		if err := rows.Scan(&n.ID, &achID, &createdAt, &seen); err != nil {
			return nil, err
		}
		n.UserID = userID
		n.AchievementID = domain.AchievementID(achID)
		n.CreatedAt = parseTime(createdAt)
		n.Seen = seen == 1
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationSeen flags a notification as shown to the user.
func (db *DB) MarkNotificationSeen(id int64) error {
	_, err := db.db.Exec(`UPDATE notifications SET seen = 1 WHERE id = ?`, id)
	return err
}

// ─── Extension Version Operations ───────────────────────────────────────────

// GetExtensionVersion returns the recorded version for an extension, or ""
// if the extension has never been activated.
func (db *DB) GetExtensionVersion(extensionID string) (string, error) {
	var version string
	err := db.db.QueryRow(`
		SELECT version FROM extension_versions WHERE extension_id = ?
	`, extensionID).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return version, err
}

// SetExtensionVersion records an extension's current version.
func (db *DB) SetExtensionVersion(extensionID, version string) error {
	_, err := db.db.Exec(`
		INSERT INTO extension_versions (extension_id, version, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(extension_id) DO UPDATE SET
			version    = excluded.version,
			updated_at = excluded.updated_at
	`, extensionID, version, formatTime(time.Now()))
	return err
}
