// internal/app/store/staging/commit_test.go
package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
)

func TestCommitNothingStaged(t *testing.T) {
	area, _ := newTestArea(t)

	if _, err := area.Commit(); err != ErrNoStagedConfig {
		t.Fatalf("Commit on empty area = %v, want ErrNoStagedConfig", err)
	}
}

func TestCommitWritesRosterAndAppliesLive(t *testing.T) {
	area, cfg := newTestArea(t)
	mustStage(t, area, "2025A", `[{"Name":"Alice","DiscordId":"id-alice"}]`)

	changes, err := area.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(changes) != 1 || changes[0].EntityName != "2025A" {
		t.Fatalf("changes = %+v, want one season record", changes)
	}

	// On disk in canonical form.
	raw, err := os.ReadFile(filepath.Join(cfg.DataPath(), "seasons", "2025A", "users.json"))
	if err != nil {
		t.Fatalf("committed roster unreadable: %v", err)
	}
	doc, err := configstore.ParseRoster(raw)
	if err != nil {
		t.Fatalf("committed roster unparsable: %v", err)
	}
	if len(doc.Entries) != 1 || doc.Entries[0].VerificationID != "id-alice" {
		t.Errorf("committed roster = %+v", doc.Entries)
	}

	// Live immediately, without a reload.
	if _, _, ok := cfg.FindUserByVerificationID("id-alice"); !ok {
		t.Error("committed entry not resolvable from live store")
	}

	// Drained.
	if area.HasStaged() {
		t.Error("staged content survived a successful commit")
	}
}

func TestCommitSpecialMembers(t *testing.T) {
	area, cfg := newTestArea(t)
	if err := area.StageSpecialMembers([]byte(`{"assignments":{"Mentor":["id-alice"]},"maintainers":["ops"]}`), "admin"); err != nil {
		t.Fatal(err)
	}

	changes, err := area.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(changes) != 1 || changes[0].EntityType != "special_members" {
		t.Fatalf("changes = %+v", changes)
	}

	if got := cfg.SpecialRolesFor("id-alice"); len(got) != 1 || got[0] != "Mentor" {
		t.Errorf("live special roles = %v, want [Mentor]", got)
	}
	if !cfg.IsMaintainer("ops") {
		t.Error("maintainer list not applied")
	}
	if _, err := os.Stat(filepath.Join(cfg.DataPath(), "global", "assignments.json")); err != nil {
		t.Errorf("assignments.json not written: %v", err)
	}
}

func TestCommitFailedWriteKeepsEntryStaged(t *testing.T) {
	area, cfg := newTestArea(t)
	mustStage(t, area, "2025A", `[{"Name":"Alice","DiscordId":"id-alice"}]`)
	mustStage(t, area, "2025B", `[{"Name":"Bob","DiscordId":"id-bob"}]`)

	// Make the 2025A target unwritable: a directory at the file path defeats
	// the final rename.
	if err := os.MkdirAll(filepath.Join(cfg.DataPath(), "seasons", "2025A", "users.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	changes, err := area.Commit()
	if err == nil {
		t.Fatal("Commit succeeded, want error for the unwritable season")
	}

	// The writable season went through.
	if len(changes) != 1 || changes[0].EntityName != "2025B" {
		t.Fatalf("changes = %+v, want only 2025B", changes)
	}
	if _, _, ok := cfg.FindUserByVerificationID("id-bob"); !ok {
		t.Error("successful entry not applied")
	}

	// The failed season stays staged for retry; the success is drained.
	sum := area.GetSummary()
	if _, ok := sum.Seasons["2025A"]; !ok {
		t.Error("failed entry drained from staging")
	}
	if _, ok := sum.Seasons["2025B"]; ok {
		t.Error("successful entry still staged")
	}
	if _, _, ok := cfg.FindUserByVerificationID("id-alice"); ok {
		t.Error("failed entry leaked into live store")
	}
}

func TestCommitMixedContent(t *testing.T) {
	area, cfg := newTestArea(t)
	mustStage(t, area, "2025A", `[{"Name":"Alice","DiscordId":"id-alice"}]`)
	if err := area.StageSpecialMembers([]byte(`{"assignments":{"Mentor":["id-alice"]}}`), "admin"); err != nil {
		t.Fatal(err)
	}

	changes, err := area.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want season + special_members", changes)
	}
	if area.HasStaged() {
		t.Error("area not drained after full success")
	}
	if got := cfg.SpecialRolesFor("id-alice"); len(got) != 1 {
		t.Errorf("special roles = %v", got)
	}
}
