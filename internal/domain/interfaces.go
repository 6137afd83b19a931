package domain

import "context"

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine depends on them.

// DefinitionStore owns achievement definitions and the event vocabulary.
// The engine treats definitions as read-only input; the authoring surface
// mutates them.
type DefinitionStore interface {
	UpsertAchievement(a AchievementDefinition) error
	GetAchievement(id AchievementID) (*AchievementDefinition, error)
	ListAchievements(statuses ...PublicationStatus) ([]AchievementDefinition, error)
	ListAchievementsByEvent(eventName string, status PublicationStatus) ([]AchievementDefinition, error)
	SetAchievementStatus(id AchievementID, status PublicationStatus) error
	DeleteAchievement(id AchievementID) error

	UpsertEvent(e EventDefinition) error
	ListEvents() ([]EventDefinition, error)
}

// ProgressStore owns per-(user, achievement) progress records and provides
// atomic single-record upsert semantics keyed by that pair.
type ProgressStore interface {
	GetProgress(userID UserID, achievementID AchievementID) (*ProgressRecord, error)
	UpsertProgress(rec ProgressRecord) (string, error)
	ListProgress(userID UserID) ([]ProgressRecord, error)
}

// ScoreStore persists per-user running totals.
type ScoreStore interface {
	GetScore(userID UserID) (int64, error)
	SetScore(userID UserID, total int64) error
	TopScores(limit int) ([]UserScore, error)
}

// ─── Collaborator Interfaces ────────────────────────────────────────────────

// Notifier receives the unlock side effect. Fire-and-forget: a failure here
// must never roll back the unlock that triggered it.
type Notifier interface {
	Notify(userID UserID, achievementID AchievementID)
}

// Identity resolves the acting user for an occurrence. Consulted once per
// occurrence; a zero UserID means no authenticated actor.
type Identity interface {
	CurrentActorID(ctx context.Context) UserID
}
