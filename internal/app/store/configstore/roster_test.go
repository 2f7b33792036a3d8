// internal/app/store/configstore/roster_test.go
package configstore

import (
	"strings"
	"testing"
)

func TestParseRosterBareArray(t *testing.T) {
	doc, err := ParseRoster([]byte(`[
  {"Name": "Alice", "DiscordId": "id-alice"},
  {"Name": "Bob", "DiscordId": "id-bob", "email": "bob@example.org"}
]`))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(doc.Entries))
	}
	if doc.Entries[0].VerificationID != "id-alice" {
		t.Errorf("verification id = %q, want id-alice", doc.Entries[0].VerificationID)
	}
	if doc.Entries[1].Email != "bob@example.org" {
		t.Errorf("email = %q", doc.Entries[1].Email)
	}
	if doc.SeasonID != "" {
		t.Errorf("bare array carried season id %q", doc.SeasonID)
	}
}

func TestParseRosterWrappedObject(t *testing.T) {
	doc, err := ParseRoster([]byte(`{
  "season_id": "2025A",
  "name": "Spring 2025",
  "active": true,
  "users": [{"Name": "Alice", "DiscordId": "id-alice"}]
}`))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if doc.SeasonID != "2025A" || doc.DisplayName != "Spring 2025" {
		t.Errorf("metadata = (%q, %q)", doc.SeasonID, doc.DisplayName)
	}
	if doc.Active == nil || !*doc.Active {
		t.Error("active flag not carried through")
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(doc.Entries))
	}
}

func TestParseRosterLeadingWhitespace(t *testing.T) {
	doc, err := ParseRoster([]byte("\n\t  [{\"Name\":\"Alice\",\"DiscordId\":\"id-alice\"}]"))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if len(doc.Entries) != 1 {
		t.Errorf("entry count = %d, want 1", len(doc.Entries))
	}
}

func TestParseRosterRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n"},
		{"scalar", `"hello"`},
		{"object without users", `{"season_id": "2025A"}`},
		{"broken array", `[{"Name":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRoster([]byte(tc.raw)); err == nil {
				t.Errorf("ParseRoster(%q) succeeded, want error", tc.raw)
			}
		})
	}
}

func TestEncodeRosterCanonicalForm(t *testing.T) {
	raw, err := EncodeRoster(nil)
	if err != nil {
		t.Fatalf("EncodeRoster(nil): %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != "[]" {
		t.Errorf("nil roster encodes as %q, want []", got)
	}

	doc, err := ParseRoster([]byte(`{"season_id":"x","users":[{"Name":"Alice","DiscordId":"id-alice"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	raw, err = EncodeRoster(doc.Entries)
	if err != nil {
		t.Fatalf("EncodeRoster: %v", err)
	}
	// Canonical form is always the bare array, whatever shape came in.
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		t.Errorf("encoded roster is not a bare array: %s", raw)
	}
	back, err := ParseRoster(raw)
	if err != nil {
		t.Fatalf("reparse canonical form: %v", err)
	}
	if len(back.Entries) != 1 || back.Entries[0].VerificationID != "id-alice" {
		t.Errorf("canonical form lost entries: %+v", back.Entries)
	}
}
