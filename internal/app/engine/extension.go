package engine

import (
	"fmt"
	"log"

	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Extensions ─────────────────────────────────────────────────────────────
// An extension teaches the engine about a host plugin's events: on first
// activation its event names join the vocabulary, and on a version change it
// gets a chance to migrate whatever it recorded.

// Extension contributes event names to the vocabulary.
type Extension interface {
	// ID is a stable identifier, e.g. "forum" or "blogging".
	ID() string
	// Version is the extension's current version string.
	Version() string
	// Events maps event names to human-readable descriptions.
	Events() map[string]string
}

// Upgrader is optionally implemented by extensions that need to run a
// migration when their recorded version changes.
type Upgrader interface {
	Upgrade(fromVersion string) error
}

// ExtensionManager reconciles extensions against their recorded versions.
type ExtensionManager struct {
	defs     domain.DefinitionStore
	versions VersionStore
}

// VersionStore persists which extension versions have been seen.
type VersionStore interface {
	GetExtensionVersion(extensionID string) (string, error)
	SetExtensionVersion(extensionID, version string) error
}

// NewExtensionManager creates a manager over the definition and version stores.
func NewExtensionManager(defs domain.DefinitionStore, versions VersionStore) *ExtensionManager {
	return &ExtensionManager{defs: defs, versions: versions}
}

// Sync registers each extension's events on first activation and runs the
// upgrade hook when a recorded version differs from the current one. Version
// strings are opaque: any change triggers Upgrade, downgrades included, and
// the hook receives the previously recorded version to decide what to do.
// Safe to call on every start.
func (m *ExtensionManager) Sync(extensions ...Extension) error {
	for _, ext := range extensions {
		recorded, err := m.versions.GetExtensionVersion(ext.ID())
		if err != nil {
			return fmt.Errorf("read version for extension %s: %w", ext.ID(), err)
		}

		switch {
		case recorded == "":
			// First activation: add the extension's events to the vocabulary.
			for name, desc := range ext.Events() {
				if err := m.defs.UpsertEvent(domain.EventDefinition{
					Name:        name,
					Description: desc,
					Source:      ext.ID(),
				}); err != nil {
					return fmt.Errorf("register event %s for extension %s: %w", name, ext.ID(), err)
				}
			}
			log.Printf("[extension] activated %s v%s (%d events)", ext.ID(), ext.Version(), len(ext.Events()))

		case recorded != ext.Version():
			if up, ok := ext.(Upgrader); ok {
				if err := up.Upgrade(recorded); err != nil {
					return fmt.Errorf("upgrade extension %s from %s: %w", ext.ID(), recorded, err)
				}
			}
			log.Printf("[extension] upgraded %s %s → %s", ext.ID(), recorded, ext.Version())

		default:
			continue // up to date
		}

		if err := m.versions.SetExtensionVersion(ext.ID(), ext.Version()); err != nil {
			return fmt.Errorf("record version for extension %s: %w", ext.ID(), err)
		}
	}
	return nil
}
