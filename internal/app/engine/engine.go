package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/observability"
)

// ─── Unlock Engine ──────────────────────────────────────────────────────────
// Per (user, achievement) state machine: NoRecord → InProgress(c) → Unlocked.
// Unlocked is terminal; the transition fires the score award and the unlock
// notification exactly once.

// Engine applies event occurrences to achievement progress.
type Engine struct {
	catalog  *Catalog
	progress domain.ProgressStore
	ledger   *Ledger
	notifier domain.Notifier
	hooks    *Hooks
	locks    *keyedMutex
}

// New creates an unlock engine. notifier and hooks may be nil.
func New(catalog *Catalog, progress domain.ProgressStore, ledger *Ledger, notifier domain.Notifier, hooks *Hooks) *Engine {
	return &Engine{
		catalog:  catalog,
		progress: progress,
		ledger:   ledger,
		notifier: notifier,
		hooks:    hooks,
		locks:    newKeyedMutex(),
	}
}

// HandleOccurrence processes one event occurrence for one user against the
// candidate achievements the registry resolved for the event. Each candidate
// runs fully to completion before the next begins, and one candidate's
// failure never aborts its siblings: skips are silent, store write failures
// are collected and returned joined.
func (e *Engine) HandleOccurrence(ctx context.Context, event string, args []any, userID domain.UserID, candidates []domain.AchievementID) error {
	var errs []error

	for _, id := range candidates {
		def, err := e.catalog.Get(id)
		if errors.Is(err, domain.ErrAchievementNotFound) {
			// Deleted between index build and lookup; skip this one only.
			observability.CandidatesSkipped.WithLabelValues("not_found").Inc()
			log.Printf("[engine] candidate %s no longer exists, skipping", id)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch candidate %s: %w", id, err))
			continue
		}

		// The registry index can hold stale bindings for trashed definitions;
		// re-check publication status at evaluation time.
		if def.Status != domain.StatusPublished {
			observability.CandidatesSkipped.WithLabelValues("unpublished").Inc()
			continue
		}

		rec, err := e.getProgress(userID, def.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch progress for %s: %w", id, err))
			continue
		}
		if rec != nil && rec.Unlocked() {
			// Terminal: never re-award points, never touch the counter.
			observability.CandidatesSkipped.WithLabelValues("already_unlocked").Inc()
			continue
		}

		if e.hooks != nil && e.hooks.VetoUnlock != nil && !e.hooks.VetoUnlock(event, args, userID, *def) {
			observability.CandidatesSkipped.WithLabelValues("vetoed").Inc()
			continue
		}

		if err := e.MaybeUnlock(userID, *def, false); err != nil {
			errs = append(errs, err)
		}
	}

	if e.hooks != nil && e.hooks.AfterHandle != nil {
		e.hooks.AfterHandle(event, args, userID)
	}
	return errors.Join(errs...)
}

// MaybeUnlock applies exactly one state transition for a (user, achievement)
// pair: unlock immediately when the definition has no target or force is set,
// otherwise advance the counter and unlock when it reaches the target.
// Already-unlocked pairs are a no-op. Force is the administrative path — it
// bypasses counting but still honors the terminal state.
func (e *Engine) MaybeUnlock(userID domain.UserID, def domain.AchievementDefinition, force bool) error {
	key := string(def.ID) + "|" + fmt.Sprint(int64(userID))
	e.locks.lock(key)
	defer e.locks.unlock(key)

	// Re-read under the key lock so concurrent occurrences for the same pair
	// cannot lose an increment or double-unlock.
	rec, err := e.getProgress(userID, def.ID)
	if err != nil {
		return fmt.Errorf("fetch progress for %s: %w", def.ID, err)
	}
	if rec != nil && rec.Unlocked() {
		return nil
	}
	if rec == nil {
		rec = &domain.ProgressRecord{UserID: userID, AchievementID: def.ID}
	}

	unlocked := false
	if force || !def.CountsProgress() {
		rec.Status = domain.ProgressUnlocked
		unlocked = true
	} else {
		rec.Counter += e.hooks.increment()
		if rec.Counter >= def.Target {
			rec.Status = domain.ProgressUnlocked
			unlocked = true
		} else {
			rec.Status = domain.ProgressInProgress
		}
	}

	progressID, err := e.progress.UpsertProgress(*rec)
	if err != nil {
		// Losing an unlock silently is a correctness defect: log and surface.
		observability.StoreWriteFailures.Inc()
		log.Printf("[engine] progress write failed for user %d achievement %s: %v", userID, def.ID, err)
		return fmt.Errorf("persist progress for %s: %w", def.ID, err)
	}
	rec.ID = progressID

	if !unlocked {
		return nil
	}

	observability.Unlocks.Inc()
	log.Printf("[engine] user %d unlocked achievement %s (%q, %d points)", userID, def.ID, def.Title, def.Points)

	if err := e.ledger.Award(userID, def.Points); err != nil {
		// The unlock stands — each write is its own unit of durability — but
		// a missing award must reach the caller, not vanish.
		observability.StoreWriteFailures.Inc()
		log.Printf("[engine] score award failed for user %d: %v", userID, err)
		return fmt.Errorf("award %d points to user %d: %w", def.Points, userID, err)
	}

	if e.notifier != nil {
		e.notifier.Notify(userID, def.ID)
	}
	if e.hooks != nil && e.hooks.AfterUnlock != nil {
		e.hooks.AfterUnlock(def, userID, *rec, progressID)
	}
	return nil
}

// getProgress normalizes "no record yet" to a nil record.
func (e *Engine) getProgress(userID domain.UserID, id domain.AchievementID) (*domain.ProgressRecord, error) {
	rec, err := e.progress.GetProgress(userID, id)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return nil, nil
	}
	return rec, err
}
