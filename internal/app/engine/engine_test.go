package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/laurelhq/laurels/internal/app/bus"
	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/sqlite"
)

// ─── Test Harness ───────────────────────────────────────────────────────────

type testEnv struct {
	db         *sqlite.DB
	bus        *bus.Bus
	registry   *Registry
	engine     *Engine
	dispatcher *Dispatcher
	ledger     *Ledger
	hooks      *Hooks
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hooks := &Hooks{}
	ledger := NewLedger(db)
	eng := New(NewCatalog(db), db, ledger, NewNotificationService(db), hooks)
	reg := NewRegistry(db)
	b := bus.New()

	return &testEnv{
		db:         db,
		bus:        b,
		registry:   reg,
		engine:     eng,
		dispatcher: NewDispatcher(b, reg, eng, nil, hooks),
		ledger:     ledger,
		hooks:      hooks,
	}
}

// addAchievement stores a definition and rebinds the dispatcher.
func (env *testEnv) addAchievement(t *testing.T, event string, target int, points int64, status domain.PublicationStatus) domain.AchievementDefinition {
	t.Helper()
	a := domain.AchievementDefinition{
		ID:        domain.AchievementID(uuid.NewString()),
		Title:     "Achievement for " + event,
		EventName: event,
		Target:    target,
		Points:    points,
		Status:    status,
	}
	if err := env.db.UpsertAchievement(a); err != nil {
		t.Fatalf("UpsertAchievement() error: %v", err)
	}
	if err := env.registry.Refresh(); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	env.dispatcher.BindAll()
	return a
}

// raise fires an event with the given acting user on the context.
func (env *testEnv) raise(t *testing.T, userID domain.UserID, event string, args ...any) error {
	t.Helper()
	ctx := context.Background()
	if userID != 0 {
		ctx = WithActor(ctx, userID)
	}
	return env.bus.Raise(ctx, event, args...)
}

func (env *testEnv) progress(t *testing.T, userID domain.UserID, id domain.AchievementID) *domain.ProgressRecord {
	t.Helper()
	rec, err := env.db.GetProgress(userID, id)
	if err != nil {
		t.Fatalf("GetProgress() error: %v", err)
	}
	return rec
}

func (env *testEnv) score(t *testing.T, userID domain.UserID) int64 {
	t.Helper()
	total, err := env.ledger.Total(userID)
	if err != nil {
		t.Fatalf("Total() error: %v", err)
	}
	return total
}

// ─── Unlock State Machine Tests ─────────────────────────────────────────────

func TestUnlock_NoTargetUnlocksImmediately(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "first_login", 0, 25, domain.StatusPublished)

	if err := env.raise(t, 1, "first_login"); err != nil {
		t.Fatalf("raise error: %v", err)
	}

	rec := env.progress(t, 1, a.ID)
	if !rec.Unlocked() {
		t.Errorf("status = %q, want unlocked on first occurrence", rec.Status)
	}
	if rec.Counter != 0 {
		t.Errorf("counter = %d, want 0 (no counting without a target)", rec.Counter)
	}
	if got := env.score(t, 1); got != 25 {
		t.Errorf("score = %d, want 25", got)
	}
}

func TestUnlock_TargetReachedExactly(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "post_published", 3, 50, domain.StatusPublished)

	env.raise(t, 1, "post_published")
	rec := env.progress(t, 1, a.ID)
	if rec.Status != domain.ProgressInProgress || rec.Counter != 1 {
		t.Errorf("after 1st: %q counter=%d, want in_progress counter=1", rec.Status, rec.Counter)
	}
	if got := env.score(t, 1); got != 0 {
		t.Errorf("score after 1st = %d, want 0 (no early award)", got)
	}

	env.raise(t, 1, "post_published")
	rec = env.progress(t, 1, a.ID)
	if rec.Status != domain.ProgressInProgress || rec.Counter != 2 {
		t.Errorf("after 2nd: %q counter=%d, want in_progress counter=2", rec.Status, rec.Counter)
	}

	env.raise(t, 1, "post_published")
	rec = env.progress(t, 1, a.ID)
	if !rec.Unlocked() {
		t.Errorf("after 3rd: status = %q, want unlocked", rec.Status)
	}
	if got := env.score(t, 1); got != 50 {
		t.Errorf("score = %d, want 50 awarded exactly once", got)
	}
}

func TestUnlock_TargetOneUnlocksOnFirst(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "profile_completed", 1, 5, domain.StatusPublished)

	env.raise(t, 4, "profile_completed")
	rec := env.progress(t, 4, a.ID)
	if !rec.Unlocked() {
		t.Errorf("status = %q, want unlocked (counter reached target 1)", rec.Status)
	}
}

func TestUnlock_NoDoubleUnlock(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "comment_posted", 2, 10, domain.StatusPublished)

	env.raise(t, 1, "comment_posted")
	env.raise(t, 1, "comment_posted")

	rec := env.progress(t, 1, a.ID)
	if !rec.Unlocked() {
		t.Fatalf("status = %q, want unlocked", rec.Status)
	}
	counterAtUnlock := rec.Counter

	// Re-firing the same event must be a no-op: terminal state, no re-award.
	for i := 0; i < 3; i++ {
		if err := env.raise(t, 1, "comment_posted"); err != nil {
			t.Fatalf("raise error: %v", err)
		}
	}

	rec = env.progress(t, 1, a.ID)
	if !rec.Unlocked() {
		t.Errorf("status regressed to %q", rec.Status)
	}
	if rec.Counter != counterAtUnlock {
		t.Errorf("counter changed %d → %d after unlock", counterAtUnlock, rec.Counter)
	}
	if got := env.score(t, 1); got != 10 {
		t.Errorf("score = %d, want 10 (points awarded once)", got)
	}
}

func TestUnlock_ConcurrentOccurrencesSameUser(t *testing.T) {
	env := newTestEnv(t)

	const raises = 50
	a := env.addAchievement(t, "lap_completed", raises, 10, domain.StatusPublished)

	// Fire the same event for one user from many goroutines at once. The
	// per-(user, achievement) lock must not lose a single increment, and the
	// unlock on the final increment must award points exactly once.
	var wg sync.WaitGroup
	errs := make(chan error, raises)
	for i := 0; i < raises; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- env.bus.Raise(WithActor(context.Background(), 1), "lap_completed")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("raise error: %v", err)
		}
	}

	rec := env.progress(t, 1, a.ID)
	if rec.Counter != raises {
		t.Errorf("counter = %d, want %d (no lost increments)", rec.Counter, raises)
	}
	if !rec.Unlocked() {
		t.Errorf("status = %q, want unlocked", rec.Status)
	}
	if got := env.score(t, 1); got != 10 {
		t.Errorf("score = %d, want 10 (points awarded once)", got)
	}
}

func TestUnlock_AnonymousActorIsNoop(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "page_viewed", 1, 10, domain.StatusPublished)

	if err := env.raise(t, 0, "page_viewed"); err != nil {
		t.Fatalf("anonymous raise should be a silent no-op, got %v", err)
	}

	if _, err := env.db.GetProgress(0, a.ID); err != domain.ErrProgressNotFound {
		t.Errorf("progress written for anonymous actor: %v", err)
	}
	if got := env.score(t, 0); got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestUnlock_UnpublishedSkipped(t *testing.T) {
	env := newTestEnv(t)
	draft := env.addAchievement(t, "video_watched", 2, 10, domain.StatusDraft)
	trashed := env.addAchievement(t, "video_watched", 2, 10, domain.StatusTrashed)

	for i := 0; i < 5; i++ {
		env.raise(t, 1, "video_watched")
	}

	if _, err := env.db.GetProgress(1, draft.ID); err != domain.ErrProgressNotFound {
		t.Errorf("draft achievement accrued progress: %v", err)
	}
	if _, err := env.db.GetProgress(1, trashed.ID); err != domain.ErrProgressNotFound {
		t.Errorf("trashed achievement accrued progress: %v", err)
	}
	if got := env.score(t, 1); got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestUnlock_ScoreEqualsSumOfUnlockedPoints(t *testing.T) {
	env := newTestEnv(t)
	env.addAchievement(t, "task_done", 1, 10, domain.StatusPublished)  // will unlock
	env.addAchievement(t, "long_haul", 100, 5, domain.StatusPublished) // stays in progress

	env.raise(t, 3, "task_done")
	env.raise(t, 3, "long_haul")

	if got := env.score(t, 3); got != 10 {
		t.Errorf("score = %d, want 10 (only unlocked points count)", got)
	}
}

func TestUnlock_SiblingIsolation(t *testing.T) {
	env := newTestEnv(t)
	// Two candidates for one event; one definition vanishes after the
	// registry index is built.
	ghost := env.addAchievement(t, "file_uploaded", 1, 5, domain.StatusPublished)
	valid := env.addAchievement(t, "file_uploaded", 1, 20, domain.StatusPublished)

	if err := env.db.DeleteAchievement(ghost.ID); err != nil {
		t.Fatalf("DeleteAchievement() error: %v", err)
	}
	// Registry still holds the stale binding — no refresh on purpose.

	if err := env.raise(t, 2, "file_uploaded"); err != nil {
		t.Fatalf("raise error: %v", err)
	}

	rec := env.progress(t, 2, valid.ID)
	if !rec.Unlocked() {
		t.Errorf("valid sibling not unlocked despite ghost candidate")
	}
	if got := env.score(t, 2); got != 20 {
		t.Errorf("score = %d, want 20", got)
	}
}

func TestUnlock_MultipleUsersIndependent(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "quiz_passed", 2, 10, domain.StatusPublished)

	env.raise(t, 1, "quiz_passed")
	env.raise(t, 2, "quiz_passed")
	env.raise(t, 1, "quiz_passed")

	rec1 := env.progress(t, 1, a.ID)
	if !rec1.Unlocked() {
		t.Errorf("user 1 status = %q, want unlocked", rec1.Status)
	}
	rec2 := env.progress(t, 2, a.ID)
	if rec2.Unlocked() || rec2.Counter != 1 {
		t.Errorf("user 2 = %q counter=%d, want in_progress counter=1", rec2.Status, rec2.Counter)
	}
}

// ─── Force Unlock Tests ─────────────────────────────────────────────────────

func TestMaybeUnlock_ForceBypassesTarget(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "marathon", 1000, 99, domain.StatusPublished)

	if err := env.engine.MaybeUnlock(5, a, true); err != nil {
		t.Fatalf("MaybeUnlock(force) error: %v", err)
	}

	rec := env.progress(t, 5, a.ID)
	if !rec.Unlocked() {
		t.Errorf("status = %q, want unlocked regardless of target", rec.Status)
	}
	if got := env.score(t, 5); got != 99 {
		t.Errorf("score = %d, want 99", got)
	}
}

func TestMaybeUnlock_ForceRespectsAlreadyUnlocked(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "sprint", 0, 30, domain.StatusPublished)

	env.raise(t, 5, "sprint")
	if got := env.score(t, 5); got != 30 {
		t.Fatalf("score = %d, want 30", got)
	}

	// Administrative re-unlock is still an already-unlocked no-op.
	if err := env.engine.MaybeUnlock(5, a, true); err != nil {
		t.Fatalf("MaybeUnlock(force) error: %v", err)
	}
	if got := env.score(t, 5); got != 30 {
		t.Errorf("score = %d after forced re-unlock, want 30", got)
	}
}

// ─── Side Effect Tests ──────────────────────────────────────────────────────

func TestUnlock_NotificationRecorded(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "badge_day", 0, 1, domain.StatusPublished)
	notify := NewNotificationService(env.db)

	env.raise(t, 6, "badge_day")

	pending, err := notify.Pending(6, 0)
	if err != nil {
		t.Fatalf("Pending() error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].AchievementID != a.ID {
		t.Errorf("notification for %s, want %s", pending[0].AchievementID, a.ID)
	}
}

func TestUnlock_AfterUnlockHook(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "hook_event", 0, 1, domain.StatusPublished)

	var gotDef domain.AchievementDefinition
	var gotUser domain.UserID
	var gotID string
	env.hooks.AfterUnlock = func(def domain.AchievementDefinition, userID domain.UserID, rec domain.ProgressRecord, progressID string) {
		gotDef = def
		gotUser = userID
		gotID = progressID
	}

	env.raise(t, 9, "hook_event")

	if gotDef.ID != a.ID {
		t.Errorf("hook def = %s, want %s", gotDef.ID, a.ID)
	}
	if gotUser != 9 {
		t.Errorf("hook user = %d, want 9", gotUser)
	}
	if gotID == "" {
		t.Error("hook progress id empty")
	}
}

func TestUnlock_IncrementAmountHook(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAchievement(t, "bulk_import", 4, 10, domain.StatusPublished)
	env.hooks.IncrementAmount = func() int { return 2 }

	env.raise(t, 1, "bulk_import")
	rec := env.progress(t, 1, a.ID)
	if rec.Counter != 2 {
		t.Errorf("counter = %d, want 2", rec.Counter)
	}

	env.raise(t, 1, "bulk_import")
	rec = env.progress(t, 1, a.ID)
	if !rec.Unlocked() {
		t.Errorf("status = %q, want unlocked after two increments of 2", rec.Status)
	}
}

func TestHooks_IncrementDefaults(t *testing.T) {
	var h *Hooks
	if got := h.increment(); got != 1 {
		t.Errorf("nil hooks increment = %d, want 1", got)
	}

	h = &Hooks{}
	if got := h.increment(); got != 1 {
		t.Errorf("unset hook increment = %d, want 1", got)
	}

	h.IncrementAmount = func() int { return -3 }
	if got := h.increment(); got != 1 {
		t.Errorf("non-positive hook increment = %d, want fallback 1", got)
	}
}
