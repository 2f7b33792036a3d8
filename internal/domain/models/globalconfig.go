// internal/domain/models/globalconfig.go
package models

import "strings"

// DefaultMemberRoleName is used when no role in roles.json carries the
// default-member flag.
const DefaultMemberRoleName = "Member"

// RoleDefinition describes a Discord role the service manages.
type RoleDefinition struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Hoist       bool   `json:"hoist,omitempty"`
	Mentionable bool   `json:"mentionable,omitempty"`
	Position    int    `json:"position,omitempty"`

	// IsDefaultMemberRole marks the role handed to every verified member.
	IsDefaultMemberRole bool `json:"is_default_member_role,omitempty"`

	// Permissions holds server-level permission names
	// (e.g. "CHANGE_NICKNAME", "CREATE_INSTANT_INVITE").
	Permissions []string `json:"permissions,omitempty"`
}

// PermissionSet is a named allow/deny pair referenced by channel definitions.
type PermissionSet struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// ChannelDefinition describes a channel (or category with children) to
// scaffold for a season.
type ChannelDefinition struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // category | text | voice | forum
	Position int    `json:"position,omitempty"`

	// RolePermissions maps role name to a permission level name defined in
	// permissions.json (e.g. "read", "readwrite", "admin", "none").
	RolePermissions map[string]string `json:"role_permissions,omitempty"`

	Children []ChannelDefinition `json:"children,omitempty"`
}

// SpecialMembers maps role names to the verification IDs that should receive
// them, plus the maintainer allow-list for the admin panel.
type SpecialMembers struct {
	Assignments map[string][]string `json:"assignments"`
	Maintainers []string            `json:"maintainers,omitempty"`
}

// RolesFor returns every special role whose assignment list contains the
// verification ID. A user may hold zero or many special roles.
func (sm *SpecialMembers) RolesFor(verificationID string) []string {
	var roles []string
	for role, ids := range sm.Assignments {
		for _, id := range ids {
			if id == verificationID {
				roles = append(roles, role)
				break
			}
		}
	}
	return roles
}

// IsMaintainer reports whether a Discord username may use the admin panel.
// Matching is case-insensitive; Discord usernames are lowercase but older
// config files carry mixed case.
func (sm *SpecialMembers) IsMaintainer(username string) bool {
	for _, m := range sm.Maintainers {
		if strings.EqualFold(m, username) {
			return true
		}
	}
	return false
}

// GlobalConfig aggregates the three global configuration files.
type GlobalConfig struct {
	Roles       []RoleDefinition         `json:"roles"`
	Permissions map[string]PermissionSet `json:"permissions"`
	Special     SpecialMembers           `json:"special_members"`
}

// DefaultMemberRole returns the role flagged as default member, or nil.
func (g *GlobalConfig) DefaultMemberRole() *RoleDefinition {
	for i := range g.Roles {
		if g.Roles[i].IsDefaultMemberRole {
			return &g.Roles[i]
		}
	}
	return nil
}

// Role returns a role definition by name, or nil.
func (g *GlobalConfig) Role(name string) *RoleDefinition {
	for i := range g.Roles {
		if g.Roles[i].Name == name {
			return &g.Roles[i]
		}
	}
	return nil
}
