// internal/app/discord/roles.go
package discord

import (
	"fmt"

	"go.uber.org/zap"
)

// applyMembership assigns the given roles to the member and sets their
// nickname to the roster name. Missing roles are created on the fly from the
// global role definitions so a committed roster never references a role the
// guild lacks.
func (b *Bot) applyMembership(discordID, displayName string, roleNames []string) error {
	roleIDs, err := b.ensureRoles(roleNames)
	if err != nil {
		return err
	}

	for _, roleID := range roleIDs {
		if err := b.session.GuildMemberRoleAdd(b.guildID, discordID, roleID); err != nil {
			return fmt.Errorf("add role %s to member %s: %w", roleID, discordID, err)
		}
	}

	if displayName != "" {
		// Nickname updates fail for the guild owner and for members above
		// the bot in the role hierarchy; that is not worth failing
		// verification over.
		if err := b.session.GuildMemberNickname(b.guildID, discordID, displayName); err != nil {
			b.log.Warn("failed to set nickname",
				zap.String("discord_id", discordID), zap.Error(err))
		}
	}

	b.log.Info("applied membership",
		zap.String("discord_id", discordID),
		zap.Strings("roles", roleNames))
	return nil
}

// ensureRoles maps role names to guild role IDs, creating any that are
// missing using the global role definition (or defaults when undefined).
func (b *Bot) ensureRoles(roleNames []string) ([]string, error) {
	guildRoles, err := b.session.GuildRoles(b.guildID)
	if err != nil {
		return nil, fmt.Errorf("list guild roles: %w", err)
	}

	byName := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		byName[role.Name] = role.ID
	}

	ids := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		if id, ok := byName[name]; ok {
			ids = append(ids, id)
			continue
		}

		global := b.cfg.Global()
		params := roleParams(name, global.Role(name))
		created, err := b.session.GuildRoleCreate(b.guildID, params)
		if err != nil {
			return nil, fmt.Errorf("create role %q: %w", name, err)
		}
		b.log.Info("created guild role", zap.String("role", name))
		byName[name] = created.ID
		ids = append(ids, created.ID)
	}
	return ids, nil
}
