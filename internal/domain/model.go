// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the engine — it depends on nothing.
package domain

import "time"

// ─── Identity Types ─────────────────────────────────────────────────────────

// UserID identifies an acting user. Zero means "no authenticated actor" —
// anonymous occurrences are discarded before any achievement is considered.
type UserID int64

// AchievementID is the opaque stable identifier of an achievement definition.
type AchievementID string

// ─── Achievement Types ──────────────────────────────────────────────────────

// PublicationStatus is the authoring lifecycle state of an achievement.
// Only published achievements are eligible for unlock evaluation.
type PublicationStatus string

const (
	StatusDraft     PublicationStatus = "draft"
	StatusPublished PublicationStatus = "published"
	StatusTrashed   PublicationStatus = "trashed"
)

// AchievementDefinition describes a goal users can unlock. Each definition
// listens for a single event name. A Target of 0 means "unlock on first
// occurrence" — no counting takes place.
type AchievementDefinition struct {
	ID          AchievementID     `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	EventName   string            `json:"event_name"`
	Target      int               `json:"target"`
	Points      int64             `json:"points"`
	Status      PublicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CountsProgress reports whether the definition tracks a counter at all.
func (a AchievementDefinition) CountsProgress() bool {
	return a.Target > 0
}

// ─── Progress Types ─────────────────────────────────────────────────────────

// ProgressStatus is the state of a user's advancement toward one achievement.
type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressUnlocked   ProgressStatus = "unlocked"
)

// ProgressRecord tracks one user's advancement toward one achievement.
// At most one record exists per (UserID, AchievementID). Once Status is
// Unlocked the record is terminal: neither Counter nor Status change again.
type ProgressRecord struct {
	ID            string         `json:"id"`
	UserID        UserID         `json:"user_id"`
	AchievementID AchievementID  `json:"achievement_id"`
	Counter       int            `json:"counter"`
	Status        ProgressStatus `json:"status"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Unlocked reports whether the record has reached its terminal state.
func (p ProgressRecord) Unlocked() bool {
	return p.Status == ProgressUnlocked
}

// ─── Score Types ────────────────────────────────────────────────────────────

// UserScore is a user's running points total. It is only ever mutated by
// adding an unlocked achievement's points — never recomputed or decremented.
type UserScore struct {
	UserID UserID `json:"user_id"`
	Total  int64  `json:"total"`
}

// ─── Event Types ────────────────────────────────────────────────────────────

// EventDefinition is an entry in the event vocabulary: a name the host
// application can raise, with a human-readable description. Contributed by
// extensions or by achievement authoring.
type EventDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"` // extension id, or "manual"
}

// Notification records that a user unlocked an achievement and has not yet
// been shown the feedback.
type Notification struct {
	ID            int64         `json:"id"`
	UserID        UserID        `json:"user_id"`
	AchievementID AchievementID `json:"achievement_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Seen          bool          `json:"seen"`
}
