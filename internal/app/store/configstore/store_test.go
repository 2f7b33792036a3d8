// internal/app/store/configstore/store_test.go
package configstore

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/chorushub/chorushub/internal/domain/models"
)

func writeFixture(t *testing.T, dataPath, rel, content string) {
	t.Helper()
	path := filepath.Join(dataPath, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadedStore(t *testing.T, fixtures map[string]string) *Store {
	t.Helper()
	dataPath := t.TempDir()
	for rel, content := range fixtures {
		writeFixture(t, dataPath, rel, content)
	}
	s := New(dataPath, zap.NewNop())
	if err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return s
}

func TestLoadAllEmptyDataDir(t *testing.T) {
	s := loadedStore(t, nil)

	if s.SeasonCount() != 0 {
		t.Errorf("season count = %d, want 0", s.SeasonCount())
	}
	// Defaults must still answer queries.
	if got := s.DefaultMemberRoleName(); got != "Member" {
		t.Errorf("default member role = %q, want Member", got)
	}
	if len(s.Global().Permissions) == 0 {
		t.Error("default permission presets missing")
	}
}

func TestLoadAllSeasonWithMetadata(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"seasons/2025A/season.json": `{"season_id":"2025A","name":"Spring 2025","active":true,"member_role":"Spring Member"}`,
		"seasons/2025A/users.json":  `[{"Name":"Alice","DiscordId":"id-alice"}]`,
	})

	season, ok := s.Season("2025A")
	if !ok {
		t.Fatal("season 2025A not loaded")
	}
	if season.DisplayName != "Spring 2025" {
		t.Errorf("display name = %q, want Spring 2025", season.DisplayName)
	}
	if season.MemberRoleName() != "Spring Member" {
		t.Errorf("member role = %q, want Spring Member", season.MemberRoleName())
	}
	if season.UserCount() != 1 {
		t.Errorf("user count = %d, want 1", season.UserCount())
	}
}

func TestLoadAllMissingSeasonJSONSynthesizesDefault(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"seasons/2025A/users.json": `[{"Name":"Alice","DiscordId":"id-alice"}]`,
	})

	season, ok := s.Season("2025A")
	if !ok {
		t.Fatal("season directory without season.json not loaded")
	}
	if !season.Active {
		t.Error("synthesized season not active")
	}
	if season.DisplayName != "2025A" {
		t.Errorf("display name = %q, want directory name", season.DisplayName)
	}
}

func TestLoadAllSkipsMalformedSeason(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"seasons/2025A/users.json":  `[{"Name":"Alice","DiscordId":"id-alice"}]`,
		"seasons/2025B/season.json": `{broken`,
		"seasons/2025B/users.json":  `[{"Name":"Bob","DiscordId":"id-bob"}]`,
		"seasons/2025C/users.json":  `{"users": "not an array"}`,
	})

	if s.SeasonCount() != 1 {
		t.Fatalf("season count = %d, want only the well-formed season", s.SeasonCount())
	}
	if _, ok := s.Season("2025B"); ok {
		t.Error("season with malformed season.json was loaded")
	}
	if _, ok := s.Season("2025C"); ok {
		t.Error("season with malformed users.json was loaded")
	}
	// A skipped season must not leak partial data into lookups.
	if _, _, ok := s.FindUserByVerificationID("id-bob"); ok {
		t.Error("roster entry from a skipped season is visible")
	}
}

func TestLoadAllMalformedGlobalFileFallsBack(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"global/roles.json": `{broken`,
	})

	if got := s.DefaultMemberRoleName(); got != "Member" {
		t.Errorf("default member role = %q, want fallback Member", got)
	}
}

func TestFindUserByVerificationIDPrecedence(t *testing.T) {
	// The same id on two active rosters resolves to the first season in
	// sorted id order, on every call.
	s := loadedStore(t, map[string]string{
		"seasons/2025B/users.json": `[{"Name":"Late","DiscordId":"id-dup"}]`,
		"seasons/2025A/users.json": `[{"Name":"Early","DiscordId":"id-dup"}]`,
	})

	for i := 0; i < 5; i++ {
		season, entry, ok := s.FindUserByVerificationID("id-dup")
		if !ok {
			t.Fatal("duplicate id not found")
		}
		if season.SeasonID != "2025A" {
			t.Fatalf("resolved to %s, want 2025A", season.SeasonID)
		}
		if entry.Name != "Early" {
			t.Fatalf("entry = %q, want the 2025A roster row", entry.Name)
		}
	}
}

func TestSpecialRolesAndMaintainers(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"global/assignments.json": `{
  "assignments": {
    "Mentor": ["id-alice", "id-bob"],
    "Judge": ["id-alice"]
  },
  "maintainers": ["Admin", "ops"]
}`,
	})

	roles := s.SpecialRolesFor("id-alice")
	if len(roles) != 2 {
		t.Fatalf("special roles = %v, want Mentor and Judge", roles)
	}
	if got := s.SpecialRolesFor("id-nobody"); len(got) != 0 {
		t.Errorf("unassigned id got roles %v", got)
	}

	if !s.IsMaintainer("admin") {
		t.Error("maintainer match should be case-insensitive")
	}
	if s.IsMaintainer("mallory") {
		t.Error("unlisted user accepted as maintainer")
	}
}

func TestReplaceSeasonPreservesMetadata(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"seasons/2025A/season.json": `{"season_id":"2025A","name":"Spring 2025","active":true,"member_role":"Spring Member"}`,
		"seasons/2025A/users.json":  `[{"Name":"Alice","DiscordId":"id-alice"}]`,
	})

	s.ReplaceSeason("2025A", []models.RosterEntry{
		{Name: "Bob", VerificationID: "id-bob"},
		{Name: "Cara", VerificationID: "id-cara"},
	})

	season, _ := s.Season("2025A")
	if season.DisplayName != "Spring 2025" || season.MemberRole != "Spring Member" {
		t.Errorf("metadata lost on roster replace: %+v", season)
	}
	if season.UserCount() != 2 {
		t.Errorf("user count = %d, want 2", season.UserCount())
	}
	if _, _, ok := s.FindUserByVerificationID("id-alice"); ok {
		t.Error("replaced roster entry still resolvable")
	}
}

func TestReplaceSeasonNewSeason(t *testing.T) {
	s := loadedStore(t, nil)

	season := s.ReplaceSeason("2026A", []models.RosterEntry{{Name: "Dan", VerificationID: "id-dan"}})
	if !season.Active {
		t.Error("new season not active")
	}
	if _, _, ok := s.FindUserByVerificationID("id-dan"); !ok {
		t.Error("entry of freshly installed season not resolvable")
	}
}
