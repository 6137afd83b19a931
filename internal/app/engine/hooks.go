package engine

import "github.com/laurelhq/laurels/internal/domain"

// ─── Extensibility Hooks ────────────────────────────────────────────────────
// Synchronous, single-valued overrides evaluated at fixed points while an
// occurrence is processed. Every field is optional; a nil hook means the
// literal default: increment by 1, no veto, no remap.

// Hooks customizes occurrence processing.
type Hooks struct {
	// BeforeHandle runs before anything else happens for an occurrence.
	BeforeHandle func(event string, args []any)

	// RemapEventName can rename the event or cancel processing entirely.
	// Returning ok=false discards the occurrence silently.
	RemapEventName func(event string, args []any) (name string, ok bool)

	// RemapActor can redirect the occurrence to a different beneficiary,
	// e.g. a moderator publishing another user's submission. Evaluated once,
	// before achievement matching begins.
	RemapActor func(userID domain.UserID, event string, args []any) domain.UserID

	// VetoUnlock can stop processing of a single candidate achievement.
	// Returning false skips the candidate; siblings proceed.
	VetoUnlock func(event string, args []any, userID domain.UserID, def domain.AchievementDefinition) bool

	// IncrementAmount overrides how much one occurrence advances a counter.
	// Non-positive return values fall back to the default of 1.
	IncrementAmount func() int

	// AfterUnlock runs after an achievement transitioned to unlocked and its
	// side effects (score, notification) fired.
	AfterUnlock func(def domain.AchievementDefinition, userID domain.UserID, rec domain.ProgressRecord, progressID string)

	// AfterHandle runs once all candidates for an occurrence are processed.
	AfterHandle func(event string, args []any, userID domain.UserID)
}

// increment resolves the per-occurrence counter increment.
func (h *Hooks) increment() int {
	if h == nil || h.IncrementAmount == nil {
		return 1
	}
	if n := h.IncrementAmount(); n > 0 {
		return n
	}
	return 1
}
