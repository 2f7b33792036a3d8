// internal/app/discord/guildscaffold.go
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/chorushub/chorushub/internal/app/system/scaffold"
)

// ApplyScaffold creates the roles and channels of a season plan in the
// guild. Existing roles and channels with matching names are reused, so
// applying a plan twice is safe. Returns how many objects were created.
func (b *Bot) ApplyScaffold(plan scaffold.Plan) (created int, err error) {
	roleIDs, createdRoles, err := b.scaffoldRoles(plan.Roles)
	if err != nil {
		return createdRoles, err
	}
	created = createdRoles

	channels, err := b.session.GuildChannels(b.guildID)
	if err != nil {
		return created, fmt.Errorf("list guild channels: %w", err)
	}
	channelByName := make(map[string]*discordgo.Channel, len(channels))
	for _, ch := range channels {
		channelByName[ch.Name] = ch
	}

	for _, ch := range plan.Channels {
		if _, exists := channelByName[ch.Name]; exists {
			continue
		}

		data := discordgo.GuildChannelCreateData{
			Name:     ch.Name,
			Type:     ChannelType(ch.Type),
			Position: ch.Position,
		}
		if ch.Parent != "" {
			parent, ok := channelByName[ch.Parent]
			if !ok {
				return created, fmt.Errorf("parent category %q missing for channel %q", ch.Parent, ch.Name)
			}
			data.ParentID = parent.ID
		}
		for _, ow := range ch.Overwrites {
			roleID, ok := roleIDs[ow.RoleName]
			if !ok {
				return created, fmt.Errorf("channel %q references unplanned role %q", ch.Name, ow.RoleName)
			}
			data.PermissionOverwrites = append(data.PermissionOverwrites, &discordgo.PermissionOverwrite{
				ID:    roleID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: PermissionMask(ow.Allow),
				Deny:  PermissionMask(ow.Deny),
			})
		}

		createdCh, err := b.session.GuildChannelCreateComplex(b.guildID, data)
		if err != nil {
			return created, fmt.Errorf("create channel %q: %w", ch.Name, err)
		}
		channelByName[createdCh.Name] = createdCh
		created++
		b.log.Info("created channel",
			zap.String("channel", ch.Name),
			zap.String("type", ch.Type),
			zap.String("season", plan.SeasonID))
	}

	return created, nil
}

// scaffoldRoles ensures every planned role exists, returning name -> id for
// the whole plan plus how many had to be created.
func (b *Bot) scaffoldRoles(roles []scaffold.RolePlan) (map[string]string, int, error) {
	guildRoles, err := b.session.GuildRoles(b.guildID)
	if err != nil {
		return nil, 0, fmt.Errorf("list guild roles: %w", err)
	}

	ids := make(map[string]string, len(roles))
	byName := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		byName[role.Name] = role.ID
	}

	created := 0
	for _, plan := range roles {
		name := plan.Definition.Name
		if id, ok := byName[name]; ok {
			ids[name] = id
			continue
		}
		def := plan.Definition
		role, err := b.session.GuildRoleCreate(b.guildID, roleParams(name, &def))
		if err != nil {
			return nil, created, fmt.Errorf("create role %q: %w", name, err)
		}
		ids[name] = role.ID
		byName[name] = role.ID
		created++
		b.log.Info("created guild role", zap.String("role", name))
	}
	return ids, created, nil
}
