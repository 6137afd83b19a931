package engine

import (
	"fmt"

	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/observability"
)

// ─── Score Ledger ───────────────────────────────────────────────────────────

// Ledger accumulates unlocked-achievement points into per-user totals.
// Award is a read-add-write. The engine's progress lock is keyed by
// (user, achievement), so awards for the same pair are serialized, but two
// DIFFERENT achievements unlocking concurrently for one user can interleave
// here; the last write wins.
type Ledger struct {
	scores domain.ScoreStore
}

// NewLedger creates a ledger over a score store.
func NewLedger(scores domain.ScoreStore) *Ledger {
	return &Ledger{scores: scores}
}

// Award adds points to a user's running total. Zero-point achievements still
// unlock; they just never touch the ledger.
func (l *Ledger) Award(userID domain.UserID, points int64) error {
	if points == 0 {
		return nil
	}

	total, err := l.scores.GetScore(userID)
	if err != nil {
		return fmt.Errorf("read score for user %d: %w", userID, err)
	}
	if err := l.scores.SetScore(userID, total+points); err != nil {
		return fmt.Errorf("write score for user %d: %w", userID, err)
	}

	observability.PointsAwarded.Add(float64(points))
	return nil
}

// Total returns a user's running total.
func (l *Ledger) Total(userID domain.UserID) (int64, error) {
	return l.scores.GetScore(userID)
}

// Top returns the highest totals, descending.
func (l *Ledger) Top(limit int) ([]domain.UserScore, error) {
	return l.scores.TopScores(limit)
}
