package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Definition errors
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrAchievementExists   = errors.New("achievement already exists")
	ErrEmptyEventName      = errors.New("achievement must name an event")

	// Progress errors
	ErrProgressNotFound = errors.New("progress record not found")

	// Occurrence errors. These never escape event handling: an anonymous or
	// vetoed occurrence is a silent no-op, not a failure.
	ErrNoActor          = errors.New("occurrence has no authenticated actor")
	ErrVetoedOccurrence = errors.New("occurrence vetoed by hook")
)
