// Package engine implements the event-to-achievement matching and
// progress-unlock core: a registry of event bindings, a dispatcher that
// attaches one shared handler per known event, and the unlock state machine
// that advances per-user progress with at-most-once award semantics.
package engine

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/laurelhq/laurels/internal/domain"
	"github.com/laurelhq/laurels/internal/infra/observability"
)

// ─── Event Registry ─────────────────────────────────────────────────────────

// registryIndex is one immutable snapshot of the name → achievement-id index.
type registryIndex struct {
	byEvent map[string][]domain.AchievementID
}

// Registry maintains the current set of known event names and which
// achievement definitions reference each. The index is rebuilt wholesale by
// Refresh and swapped atomically: readers observe either the pre- or
// post-refresh snapshot, never a torn mix.
type Registry struct {
	defs  domain.DefinitionStore
	index atomic.Pointer[registryIndex]
}

// NewRegistry creates an empty registry. Call Refresh before first use.
func NewRegistry(defs domain.DefinitionStore) *Registry {
	r := &Registry{defs: defs}
	r.index.Store(&registryIndex{byEvent: map[string][]domain.AchievementID{}})
	return r
}

// Refresh rebuilds the index from the definition store's current achievement
// event bindings. Trashed definitions are included on purpose: the underlying
// index can hold stale bindings, and publication status is re-verified at
// evaluation time instead. Idempotent and safe to call repeatedly; invoke it
// whenever a binding is created or edited, and once at process start.
func (r *Registry) Refresh() error {
	defs, err := r.defs.ListAchievements(domain.StatusPublished, domain.StatusTrashed)
	if err != nil {
		return fmt.Errorf("list achievements: %w", err)
	}

	byEvent := make(map[string][]domain.AchievementID)
	for _, def := range defs {
		byEvent[def.EventName] = append(byEvent[def.EventName], def.ID)
	}

	r.index.Store(&registryIndex{byEvent: byEvent})

	observability.RegistryRefreshes.Inc()
	observability.RegistryEvents.Set(float64(len(byEvent)))
	return nil
}

// Resolve returns the achievement ids bound to an event name, in the
// definition store's listing order. Empty when nothing is bound.
func (r *Registry) Resolve(event string) []domain.AchievementID {
	ids := r.index.Load().byEvent[event]
	out := make([]domain.AchievementID, len(ids))
	copy(out, ids)
	return out
}

// EventNames returns the known event names, sorted.
func (r *Registry) EventNames() []string {
	idx := r.index.Load()
	names := make([]string, 0, len(idx.byEvent))
	for name := range idx.byEvent {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
