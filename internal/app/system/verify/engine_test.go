// internal/app/system/verify/engine_test.go
package verify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/domain/models"
)

func newTestEngine(t *testing.T) (*Engine, *configstore.Store, *userdb.DB) {
	t.Helper()
	cfg := configstore.New(t.TempDir(), zap.NewNop())
	cfg.ReplaceSeason("2025A", []models.RosterEntry{
		{Name: "Alice", VerificationID: "id-alice"},
		{Name: "Bob", VerificationID: "id-bob"},
	})
	cfg.ReplaceSeason("2025B", []models.RosterEntry{
		{Name: "Alice", VerificationID: "id-alice-b"},
	})
	cfg.ReplaceSpecialMembers(models.SpecialMembers{
		Assignments: map[string][]string{
			"Mentor": {"id-bob"},
		},
	})
	users := userdb.New()
	return New(cfg, users, zap.NewNop()), cfg, users
}

func TestVerifyUnknownID(t *testing.T) {
	eng, _, users := newTestEngine(t)

	res, err := eng.AttemptVerification("discord-1", "id-nope", "alice")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if res.Success {
		t.Fatal("unknown id verified")
	}
	if !strings.Contains(res.Message, "id-nope") {
		t.Errorf("message %q does not echo the id", res.Message)
	}
	if users.UserCount() != 0 {
		t.Errorf("user database mutated on failed attempt: %d users", users.UserCount())
	}
}

func TestVerifySuccessAssignsRoles(t *testing.T) {
	eng, _, users := newTestEngine(t)

	res, err := eng.AttemptVerification("discord-bob", "id-bob", "bobby")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if !res.Success {
		t.Fatalf("verification failed: %q", res.Message)
	}
	if res.SeasonID != "2025A" {
		t.Errorf("season = %q, want 2025A", res.SeasonID)
	}
	if res.DisplayName != "Bob" {
		t.Errorf("display name = %q, want roster name Bob", res.DisplayName)
	}

	want := map[string]bool{"Member": false, "Member2025A": false, "Mentor": false}
	for _, r := range res.RolesToAssign {
		if _, ok := want[r]; !ok {
			t.Errorf("unexpected role %q", r)
		}
		want[r] = true
	}
	for r, seen := range want {
		if !seen {
			t.Errorf("role %q missing from %v", r, res.RolesToAssign)
		}
	}

	u, ok := users.FindByDiscordID("discord-bob")
	if !ok {
		t.Fatal("user record not created")
	}
	if u.VerificationIDs["2025A"] != "id-bob" {
		t.Errorf("binding = %q, want id-bob", u.VerificationIDs["2025A"])
	}
	if u.Status != models.StatusVerified {
		t.Errorf("status = %q, want verified", u.Status)
	}
}

func TestVerifyIDAlreadyUsedByOtherAccount(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	if res, _ := eng.AttemptVerification("discord-1", "id-alice", "alice"); !res.Success {
		t.Fatalf("setup verification failed: %q", res.Message)
	}

	res, err := eng.AttemptVerification("discord-2", "id-alice", "mallory")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if res.Success {
		t.Fatal("second account verified with a used id")
	}
	if res.Message != "This ID has already been used to verify another account." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestVerifyAlreadyVerifiedThisSeason(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	if res, _ := eng.AttemptVerification("discord-1", "id-alice", "alice"); !res.Success {
		t.Fatalf("setup verification failed: %q", res.Message)
	}

	res, err := eng.AttemptVerification("discord-1", "id-alice", "alice")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if res.Success {
		t.Fatal("repeat verification for the same season succeeded")
	}
	if !strings.Contains(res.Message, "already verified for season 2025A") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestVerifySecondSeasonSameAccount(t *testing.T) {
	eng, _, users := newTestEngine(t)

	if res, _ := eng.AttemptVerification("discord-1", "id-alice", "alice"); !res.Success {
		t.Fatalf("first season verification failed: %q", res.Message)
	}
	res, err := eng.AttemptVerification("discord-1", "id-alice-b", "alice")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if !res.Success {
		t.Fatalf("second season verification failed: %q", res.Message)
	}
	if res.SeasonID != "2025B" {
		t.Errorf("season = %q, want 2025B", res.SeasonID)
	}

	u, _ := users.FindByDiscordID("discord-1")
	if len(u.VerificationIDs) != 2 {
		t.Errorf("binding count = %d, want 2", len(u.VerificationIDs))
	}
	if users.UserCount() != 1 {
		t.Errorf("user count = %d, want 1 record across seasons", users.UserCount())
	}
}

func TestVerifyInactiveSeasonInvisible(t *testing.T) {
	dataPath := t.TempDir()
	seasonDir := filepath.Join(dataPath, "seasons", "2024E")
	if err := os.MkdirAll(seasonDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(seasonDir, "season.json"),
		`{"season_id":"2024E","name":"Fall 2024","active":false}`)
	writeFile(t, filepath.Join(seasonDir, "users.json"),
		`[{"Name":"Alice","DiscordId":"id-alice"}]`)

	cfg := configstore.New(dataPath, zap.NewNop())
	if err := cfg.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	eng := New(cfg, userdb.New(), zap.NewNop())

	res, err := eng.AttemptVerification("discord-1", "id-alice", "alice")
	if err != nil {
		t.Fatalf("AttemptVerification: %v", err)
	}
	if res.Success {
		t.Fatal("verified against an inactive season")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPendingLifecycle(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	if !eng.StartPending("discord-1") {
		t.Fatal("StartPending refused a fresh account")
	}
	if eng.StartPending("discord-1") {
		t.Error("StartPending allowed a second in-flight verification")
	}
	if !eng.IsPending("discord-1") {
		t.Error("IsPending = false, want true")
	}

	eng.CancelPending("discord-1")
	if eng.IsPending("discord-1") {
		t.Error("IsPending = true after cancel")
	}
}

func TestPendingClearedOnSuccess(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.StartPending("discord-1")
	if res, _ := eng.AttemptVerification("discord-1", "id-alice", "alice"); !res.Success {
		t.Fatalf("verification failed: %q", res.Message)
	}
	if eng.IsPending("discord-1") {
		t.Error("pending marker survived a successful verification")
	}
}
