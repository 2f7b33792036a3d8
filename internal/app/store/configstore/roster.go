// internal/app/store/configstore/roster.go
package configstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chorushub/chorushub/internal/domain/models"
)

// RosterDocument is the normalized result of parsing a roster file. The wire
// format comes in two shapes: a bare JSON array of entries, or a legacy
// object wrapping the array alongside season metadata. Both normalize here so
// nothing downstream branches on input shape.
type RosterDocument struct {
	Entries []models.RosterEntry

	// Wrapped metadata, present only for the object form.
	SeasonID    string
	DisplayName string
	Active      *bool
}

// wrappedRoster is the legacy object form.
type wrappedRoster struct {
	SeasonID    string               `json:"season_id"`
	DisplayName string               `json:"name"`
	Active      *bool                `json:"active"`
	Users       []models.RosterEntry `json:"users"`
}

// ParseRoster decodes roster bytes in either supported shape.
func ParseRoster(raw []byte) (RosterDocument, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return RosterDocument{}, fmt.Errorf("empty roster document")
	}

	switch trimmed[0] {
	case '[':
		var entries []models.RosterEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return RosterDocument{}, fmt.Errorf("parse roster array: %w", err)
		}
		return RosterDocument{Entries: entries}, nil
	case '{':
		var w wrappedRoster
		if err := json.Unmarshal(raw, &w); err != nil {
			return RosterDocument{}, fmt.Errorf("parse wrapped roster: %w", err)
		}
		if w.Users == nil {
			return RosterDocument{}, fmt.Errorf("wrapped roster has no %q array", "users")
		}
		return RosterDocument{
			Entries:     w.Users,
			SeasonID:    w.SeasonID,
			DisplayName: w.DisplayName,
			Active:      w.Active,
		}, nil
	default:
		return RosterDocument{}, fmt.Errorf("roster must be a JSON array or object")
	}
}

// EncodeRoster renders entries in the canonical on-disk form (bare array,
// pretty-printed) for users.json.
func EncodeRoster(entries []models.RosterEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.RosterEntry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}
