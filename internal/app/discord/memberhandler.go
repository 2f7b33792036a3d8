// internal/app/discord/memberhandler.go
package discord

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const welcomeMessage = "Welcome to the server! Reply here with your verification ID " +
	"to get access, or use /verify in the server. If you do not have an ID, " +
	"please contact a staff member."

// onGuildMemberAdd greets a new member over DM and opens a pending
// verification so their next DM is treated as an ID.
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.GuildID != b.guildID || m.User == nil || m.User.Bot {
		return
	}
	if b.users.IsVerified(m.User.ID) {
		return
	}
	if !b.engine.StartPending(m.User.ID) {
		return
	}

	ch, err := s.UserChannelCreate(m.User.ID)
	if err != nil {
		// DMs disabled; they can still use /verify.
		b.log.Debug("could not open welcome dm", zap.String("discord_id", m.User.ID), zap.Error(err))
		return
	}
	if _, err := s.ChannelMessageSend(ch.ID, welcomeMessage); err != nil {
		b.log.Debug("could not send welcome dm", zap.String("discord_id", m.User.ID), zap.Error(err))
	}
}

// onGuildMemberRemove drops any pending verification for the departed member.
func (b *Bot) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.GuildID != b.guildID || m.User == nil {
		return
	}
	b.engine.CancelPending(m.User.ID)
}
