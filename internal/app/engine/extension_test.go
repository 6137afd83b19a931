package engine

import (
	"testing"
)

// ─── Extension Tests ────────────────────────────────────────────────────────

type fakeExtension struct {
	id       string
	version  string
	events   map[string]string
	upgraded string
}

func (f *fakeExtension) ID() string                { return f.id }
func (f *fakeExtension) Version() string           { return f.version }
func (f *fakeExtension) Events() map[string]string { return f.events }

func (f *fakeExtension) Upgrade(fromVersion string) error {
	f.upgraded = fromVersion
	return nil
}

func TestExtensionSync_FirstActivationRegistersEvents(t *testing.T) {
	env := newTestEnv(t)
	mgr := NewExtensionManager(env.db, env.db)

	ext := &fakeExtension{
		id:      "forum",
		version: "1.0.0",
		events: map[string]string{
			"topic_created": "A forum topic was created",
			"reply_posted":  "A reply was posted",
		},
	}

	if err := mgr.Sync(ext); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	events, err := env.db.ListEvents()
	if err != nil {
		t.Fatalf("ListEvents() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("vocabulary = %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Source != "forum" {
			t.Errorf("event %s source = %q, want forum", e.Name, e.Source)
		}
	}

	v, _ := env.db.GetExtensionVersion("forum")
	if v != "1.0.0" {
		t.Errorf("recorded version = %q, want 1.0.0", v)
	}
}

func TestExtensionSync_SameVersionIsNoop(t *testing.T) {
	env := newTestEnv(t)
	mgr := NewExtensionManager(env.db, env.db)
	ext := &fakeExtension{id: "forum", version: "1.0.0", events: map[string]string{"x": ""}}

	mgr.Sync(ext)
	ext.upgraded = ""
	if err := mgr.Sync(ext); err != nil {
		t.Fatalf("second Sync() error: %v", err)
	}
	if ext.upgraded != "" {
		t.Errorf("Upgrade ran for unchanged version (from %q)", ext.upgraded)
	}
}

func TestExtensionSync_VersionBumpRunsUpgrade(t *testing.T) {
	env := newTestEnv(t)
	mgr := NewExtensionManager(env.db, env.db)

	ext := &fakeExtension{id: "blogging", version: "1.0.0", events: map[string]string{"post_published": ""}}
	mgr.Sync(ext)

	ext.version = "2.0.0"
	if err := mgr.Sync(ext); err != nil {
		t.Fatalf("Sync() after bump error: %v", err)
	}
	if ext.upgraded != "1.0.0" {
		t.Errorf("Upgrade(from) = %q, want 1.0.0", ext.upgraded)
	}

	v, _ := env.db.GetExtensionVersion("blogging")
	if v != "2.0.0" {
		t.Errorf("recorded version = %q, want 2.0.0", v)
	}
}

func TestExtensionSync_DowngradeAlsoRunsUpgrade(t *testing.T) {
	env := newTestEnv(t)
	mgr := NewExtensionManager(env.db, env.db)

	ext := &fakeExtension{id: "forum", version: "2.0.0", events: map[string]string{"topic_created": ""}}
	mgr.Sync(ext)

	// Versions are opaque strings: a rollback is still a change and the
	// extension gets its migration hook with the prior version.
	ext.version = "1.9.0"
	if err := mgr.Sync(ext); err != nil {
		t.Fatalf("Sync() after rollback error: %v", err)
	}
	if ext.upgraded != "2.0.0" {
		t.Errorf("Upgrade(from) = %q, want 2.0.0", ext.upgraded)
	}

	v, _ := env.db.GetExtensionVersion("forum")
	if v != "1.9.0" {
		t.Errorf("recorded version = %q, want 1.9.0", v)
	}
}
