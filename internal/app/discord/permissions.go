// internal/app/discord/permissions.go
package discord

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/chorushub/chorushub/internal/domain/models"
)

// permissionBits maps the permission names used in the config files to
// Discord permission bits. Names follow Discord's developer documentation.
var permissionBits = map[string]int64{
	"VIEW_CHANNEL":          discordgo.PermissionViewChannel,
	"SEND_MESSAGES":         discordgo.PermissionSendMessages,
	"READ_MESSAGE_HISTORY":  discordgo.PermissionReadMessageHistory,
	"CONNECT":               discordgo.PermissionVoiceConnect,
	"SPEAK":                 discordgo.PermissionVoiceSpeak,
	"ATTACH_FILES":          discordgo.PermissionAttachFiles,
	"ADD_REACTIONS":         discordgo.PermissionAddReactions,
	"MANAGE_MESSAGES":       discordgo.PermissionManageMessages,
	"MANAGE_CHANNELS":       discordgo.PermissionManageChannels,
	"CHANGE_NICKNAME":       discordgo.PermissionChangeNickname,
	"CREATE_INSTANT_INVITE": discordgo.PermissionCreateInstantInvite,
}

// PermissionMask folds a list of permission names into one bitmask. Unknown
// names are skipped; the config loader has already warned about them.
func PermissionMask(names []string) int64 {
	var mask int64
	for _, name := range names {
		if bit, ok := permissionBits[strings.ToUpper(strings.TrimSpace(name))]; ok {
			mask |= bit
		}
	}
	return mask
}

// channelTypes maps config channel type names to Discord channel types.
var channelTypes = map[string]discordgo.ChannelType{
	"category": discordgo.ChannelTypeGuildCategory,
	"text":     discordgo.ChannelTypeGuildText,
	"voice":    discordgo.ChannelTypeGuildVoice,
	"forum":    discordgo.ChannelTypeGuildForum,
}

// ChannelType resolves a config type name, defaulting to a text channel.
func ChannelType(name string) discordgo.ChannelType {
	if t, ok := channelTypes[strings.ToLower(name)]; ok {
		return t
	}
	return discordgo.ChannelTypeGuildText
}

// roleParams converts a role definition into creation parameters. A nil
// definition yields a plain mentionable role with the given name.
func roleParams(name string, def *models.RoleDefinition) *discordgo.RoleParams {
	params := &discordgo.RoleParams{Name: name}

	if def == nil {
		mentionable := true
		params.Mentionable = &mentionable
		return params
	}

	params.Hoist = &def.Hoist
	params.Mentionable = &def.Mentionable
	if def.Color != "" {
		if color, err := parseHexColor(def.Color); err == nil {
			params.Color = &color
		}
	}
	if len(def.Permissions) > 0 {
		mask := PermissionMask(def.Permissions)
		params.Permissions = &mask
	}
	return params
}

// parseHexColor parses "#rrggbb" (or "rrggbb") into an integer color.
func parseHexColor(s string) (int, error) {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseInt(s, 16, 32)
	return int(v), err
}
