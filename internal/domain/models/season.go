// internal/domain/models/season.go
package models

// RosterEntry is one row of a season roster file.
//
// NOTE:
//   - The wire field is "DiscordId" for compatibility with existing roster
//     exports, but it carries the opaque verification token (usually a UUID),
//     never a Discord snowflake.
type RosterEntry struct {
	Name           string `json:"Name"`
	VerificationID string `json:"DiscordId"`
	Email          string `json:"email,omitempty"`
}

// Season is a time-boxed cohort with its own roster, channel layout, and
// member role. Seasons are materialized from data/seasons/<id>/ at load time
// and replaced wholesale when a staged roster is committed.
type Season struct {
	SeasonID    string `json:"season_id"`
	DisplayName string `json:"name"`
	Active      bool   `json:"active"`

	// MemberRole is the Discord role granted to every verified member of
	// this season. Empty means "Member"+SeasonID.
	MemberRole string `json:"member_role,omitempty"`

	Channels []ChannelDefinition `json:"channels,omitempty"`

	Roster []RosterEntry `json:"users"`
}

// MemberRoleName returns the configured member role, falling back to the
// conventional "Member"+season_id name.
func (s *Season) MemberRoleName() string {
	if s.MemberRole != "" {
		return s.MemberRole
	}
	return "Member" + s.SeasonID
}

// FindEntry returns the roster entry for a verification ID, if present.
func (s *Season) FindEntry(verificationID string) *RosterEntry {
	for i := range s.Roster {
		if s.Roster[i].VerificationID == verificationID {
			return &s.Roster[i]
		}
	}
	return nil
}

// UserCount returns the roster size.
func (s *Season) UserCount() int {
	return len(s.Roster)
}

// DefaultSeason synthesizes a Season for a directory that has no season.json.
// The directory name serves as both id and display name.
func DefaultSeason(seasonID string) Season {
	return Season{
		SeasonID:    seasonID,
		DisplayName: seasonID,
		Active:      true,
	}
}
