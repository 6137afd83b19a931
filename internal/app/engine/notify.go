package engine

import (
	"log"

	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/sqlite"
)

// ─── Unlock Notifications ───────────────────────────────────────────────────

// NotificationService records unlock notifications so the host UI can show
// "achievement unlocked" feedback, and lets it mark them seen.
type NotificationService struct {
	db *sqlite.DB
}

// NewNotificationService creates the service over the shared database.
func NewNotificationService(db *sqlite.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify implements domain.Notifier. Fire-and-forget: a failed insert is
// logged, never propagated — it must not roll back the unlock that fired it.
func (s *NotificationService) Notify(userID domain.UserID, achievementID domain.AchievementID) {
	if _, err := s.db.InsertNotification(userID, achievementID); err != nil {
		log.Printf("[notify] recording unlock notification for user %d: %v", userID, err)
	}
}

// Pending returns a user's unseen notifications, oldest first.
func (s *NotificationService) Pending(userID domain.UserID, limit int) ([]domain.Notification, error) {
	return s.db.PendingNotifications(userID, limit)
}

// MarkSeen flags a notification as shown.
func (s *NotificationService) MarkSeen(id int64) error {
	return s.db.MarkNotificationSeen(id)
}
