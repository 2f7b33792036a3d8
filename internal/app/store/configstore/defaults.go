// internal/app/store/configstore/defaults.go
package configstore

import "github.com/chorushub/chorushub/internal/domain/models"

// defaultGlobalConfig is what the store serves before roles.json and
// permissions.json are loaded, and what malformed files fall back to.
func defaultGlobalConfig() models.GlobalConfig {
	return models.GlobalConfig{
		Roles: []models.RoleDefinition{
			{
				Name:                models.DefaultMemberRoleName,
				Color:               "#2ecc71",
				Mentionable:         true,
				IsDefaultMemberRole: true,
			},
		},
		Permissions: map[string]models.PermissionSet{
			"none": {
				Allow: []string{},
				Deny:  []string{"VIEW_CHANNEL", "CONNECT"},
			},
			"read": {
				Allow: []string{"VIEW_CHANNEL", "READ_MESSAGE_HISTORY"},
				Deny:  []string{"SEND_MESSAGES"},
			},
			"readwrite": {
				Allow: []string{"VIEW_CHANNEL", "READ_MESSAGE_HISTORY", "SEND_MESSAGES", "ATTACH_FILES", "ADD_REACTIONS"},
				Deny:  []string{},
			},
			"admin": {
				Allow: []string{"VIEW_CHANNEL", "READ_MESSAGE_HISTORY", "SEND_MESSAGES", "MANAGE_MESSAGES", "MANAGE_CHANNELS"},
				Deny:  []string{},
			},
		},
		Special: models.SpecialMembers{
			Assignments: map[string][]string{},
		},
	}
}
