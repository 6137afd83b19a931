package engine

import "github.com/laurelhq/laurels/internal/domain"

// ─── Achievement Catalog ────────────────────────────────────────────────────

// Catalog is the engine's read-only view of achievement definitions.
// The authoring surface owns mutation; the engine only looks up targets,
// point values, and publication status.
type Catalog struct {
	defs domain.DefinitionStore
}

// NewCatalog wraps a definition store in a read-only view.
func NewCatalog(defs domain.DefinitionStore) *Catalog {
	return &Catalog{defs: defs}
}

// Get returns one definition, or domain.ErrAchievementNotFound if the id no
// longer exists (it may have been deleted after the registry index was built).
func (c *Catalog) Get(id domain.AchievementID) (*domain.AchievementDefinition, error) {
	return c.defs.GetAchievement(id)
}

// ListPublishedBoundTo returns the published definitions listening for an
// event, in the store's listing order. Callers must not depend on the order
// for correctness — it only keeps fixtures deterministic.
func (c *Catalog) ListPublishedBoundTo(event string) ([]domain.AchievementDefinition, error) {
	return c.defs.ListAchievementsByEvent(event, domain.StatusPublished)
}
