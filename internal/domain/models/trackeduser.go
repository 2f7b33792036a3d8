// internal/domain/models/trackeduser.go
package models

import "time"

// VerificationStatus is the lifecycle state of a tracked Discord account.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRevoked  VerificationStatus = "revoked"
	StatusExpired  VerificationStatus = "expired"
)

// TrackedUser is the durable record of a Discord account's verification
// history across seasons. A verification ID value may be bound to at most one
// discord_id across the whole database, and a (discord_id, season_id) pair
// acquires a verification ID at most once.
type TrackedUser struct {
	DiscordID string `json:"discord_id"`

	// VerificationIDs maps season_id to the verification ID used there.
	VerificationIDs map[string]string `json:"verification_ids"`

	DisplayName string `json:"display_name"`

	// VerifiedAt is a Unix timestamp (seconds).
	VerifiedAt int64 `json:"verified_at"`

	SpecialRoles []string `json:"special_roles"`
	CurrentRoles []string `json:"current_roles"`

	Status VerificationStatus `json:"verification_status"`

	LastSeen *int64 `json:"last_seen,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// NewTrackedUser builds a freshly verified record for one season.
func NewTrackedUser(discordID, verificationID, seasonID, displayName string, specialRoles []string) TrackedUser {
	now := time.Now().Unix()
	return TrackedUser{
		DiscordID:       discordID,
		VerificationIDs: map[string]string{seasonID: verificationID},
		DisplayName:     displayName,
		VerifiedAt:      now,
		SpecialRoles:    specialRoles,
		CurrentRoles:    []string{},
		Status:          StatusVerified,
		LastSeen:        &now,
	}
}

// AddVerificationID records a verification for an additional season.
func (u *TrackedUser) AddVerificationID(seasonID, verificationID string) {
	if u.VerificationIDs == nil {
		u.VerificationIDs = make(map[string]string)
	}
	u.VerificationIDs[seasonID] = verificationID
}

// HasVerificationID reports whether any season binding carries the ID.
func (u *TrackedUser) HasVerificationID(verificationID string) bool {
	for _, id := range u.VerificationIDs {
		if id == verificationID {
			return true
		}
	}
	return false
}

// AddRole appends a role to CurrentRoles if not already present.
func (u *TrackedUser) AddRole(role string) {
	for _, r := range u.CurrentRoles {
		if r == role {
			return
		}
	}
	u.CurrentRoles = append(u.CurrentRoles, role)
}

// RemoveRole drops a role from CurrentRoles.
func (u *TrackedUser) RemoveRole(role string) {
	kept := u.CurrentRoles[:0]
	for _, r := range u.CurrentRoles {
		if r != role {
			kept = append(kept, r)
		}
	}
	u.CurrentRoles = kept
}

// MergeSpecialRoles unions roles into SpecialRoles, preserving order.
func (u *TrackedUser) MergeSpecialRoles(roles []string) {
	for _, role := range roles {
		present := false
		for _, have := range u.SpecialRoles {
			if have == role {
				present = true
				break
			}
		}
		if !present {
			u.SpecialRoles = append(u.SpecialRoles, role)
		}
	}
}

// TouchLastSeen refreshes the last-seen timestamp.
func (u *TrackedUser) TouchLastSeen() {
	now := time.Now().Unix()
	u.LastSeen = &now
}
