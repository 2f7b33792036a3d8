// internal/app/store/userdb/userdb_test.go
package userdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chorushub/chorushub/internal/domain/models"
)

func TestLoadMissingFileReturnsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "user_database.json")

	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if db.UserCount() != 0 {
		t.Errorf("fresh database has %d users, want 0", db.UserCount())
	}
	if db.Version() != CurrentSchemaVersion {
		t.Errorf("fresh database version = %d, want %d", db.Version(), CurrentSchemaVersion)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_database.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed file succeeded, want error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_database.json")

	db := New()
	db.UpsertUser(models.NewTrackedUser("discord-1", "id-aaa", "2025A", "Alice", []string{"Mentor"}))
	db.UpsertUser(models.NewTrackedUser("discord-2", "id-bbb", "2025A", "Bob", nil))

	if err := db.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UserCount() != 2 {
		t.Fatalf("reloaded database has %d users, want 2", got.UserCount())
	}

	u, ok := got.FindByDiscordID("discord-1")
	if !ok {
		t.Fatal("discord-1 missing after reload")
	}
	if u.VerificationIDs["2025A"] != "id-aaa" {
		t.Errorf("verification id = %q, want id-aaa", u.VerificationIDs["2025A"])
	}
	if len(u.SpecialRoles) != 1 || u.SpecialRoles[0] != "Mentor" {
		t.Errorf("special roles = %v, want [Mentor]", u.SpecialRoles)
	}
	if u.Status != models.StatusVerified {
		t.Errorf("status = %q, want verified", u.Status)
	}
}

func TestFindByVerificationID(t *testing.T) {
	db := New()
	user := models.NewTrackedUser("discord-1", "id-aaa", "2025A", "Alice", nil)
	user.AddVerificationID("2025B", "id-ccc")
	db.UpsertUser(user)

	if _, ok := db.FindByVerificationID("id-ccc"); !ok {
		t.Error("id-ccc not found, want found via second season binding")
	}
	if _, ok := db.FindByVerificationID("id-zzz"); ok {
		t.Error("id-zzz found, want not found")
	}
}

func TestIsVerified(t *testing.T) {
	db := New()
	verified := models.NewTrackedUser("discord-1", "id-aaa", "2025A", "Alice", nil)
	revoked := models.NewTrackedUser("discord-2", "id-bbb", "2025A", "Bob", nil)
	revoked.Status = models.StatusRevoked
	db.UpsertUser(verified)
	db.UpsertUser(revoked)

	if !db.IsVerified("discord-1") {
		t.Error("discord-1 not verified, want verified")
	}
	if db.IsVerified("discord-2") {
		t.Error("revoked discord-2 reported verified")
	}
	if db.IsVerified("discord-3") {
		t.Error("unknown discord-3 reported verified")
	}
}

func TestUsersBySeasonSorted(t *testing.T) {
	db := New()
	db.UpsertUser(models.NewTrackedUser("discord-2", "id-b", "2025A", "Bob", nil))
	db.UpsertUser(models.NewTrackedUser("discord-1", "id-a", "2025A", "Alice", nil))
	db.UpsertUser(models.NewTrackedUser("discord-3", "id-c", "2025B", "Cara", nil))

	got := db.UsersBySeason("2025A")
	if len(got) != 2 {
		t.Fatalf("UsersBySeason(2025A) returned %d users, want 2", len(got))
	}
	if got[0].DiscordID != "discord-1" || got[1].DiscordID != "discord-2" {
		t.Errorf("order = [%s %s], want [discord-1 discord-2]", got[0].DiscordID, got[1].DiscordID)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := New()
	db.UpsertUser(models.NewTrackedUser("discord-1", "id-a", "2025A", "Alice", nil))

	updated, _ := db.FindByDiscordID("discord-1")
	updated.AddVerificationID("2025B", "id-b")
	updated.DisplayName = "Alice Cooper"
	db.UpsertUser(updated)

	if db.UserCount() != 1 {
		t.Fatalf("user count = %d after upsert of same id, want 1", db.UserCount())
	}
	got, _ := db.FindByDiscordID("discord-1")
	if got.DisplayName != "Alice Cooper" {
		t.Errorf("display name = %q, want updated value", got.DisplayName)
	}
	if len(got.VerificationIDs) != 2 {
		t.Errorf("verification id count = %d, want 2", len(got.VerificationIDs))
	}
}

func TestExportIsValidJSON(t *testing.T) {
	db := New()
	db.UpsertUser(models.NewTrackedUser("discord-1", "id-a", "2025A", "Alice", nil))

	raw, err := db.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var shape struct {
		Version int                        `json:"version"`
		Users   map[string]json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("export not valid JSON: %v", err)
	}
	if shape.Version != CurrentSchemaVersion {
		t.Errorf("export version = %d, want %d", shape.Version, CurrentSchemaVersion)
	}
	if len(shape.Users) != 1 {
		t.Errorf("export user count = %d, want 1", len(shape.Users))
	}
}
