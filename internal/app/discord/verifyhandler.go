// internal/app/discord/verifyhandler.go
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// onInteraction handles the /verify slash command. The reply is always
// ephemeral so verification IDs never appear in channels.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "verify" {
		return
	}

	discordID, displayName := interactionUser(i)
	if discordID == "" {
		return
	}

	verificationID := ""
	for _, opt := range data.Options {
		if opt.Name == "id" {
			verificationID = opt.StringValue()
		}
	}

	result, err := b.engine.AttemptVerification(discordID, verificationID, displayName)
	if err != nil {
		b.log.Error("verification attempt failed", zap.Error(err),
			zap.String("discord_id", discordID))
		b.respondEphemeral(s, i, "Something went wrong on our side. Please try again later.")
		return
	}

	if !result.Success {
		b.respondEphemeral(s, i, result.Message)
		return
	}

	if err := b.applyMembership(discordID, result.DisplayName, result.RolesToAssign); err != nil {
		// Verified in the database but the guild update failed; the
		// maintenance loop will not retry this, so tell the user to ping
		// staff rather than re-verify with a now-consumed ID.
		b.log.Error("verified but failed to apply roles", zap.Error(err),
			zap.String("discord_id", discordID))
		b.respondEphemeral(s, i, fmt.Sprintf(
			"You are verified for %s, but I could not update your roles. Please contact a staff member.",
			result.SeasonName))
		return
	}

	b.respondEphemeral(s, i, fmt.Sprintf(
		"Welcome, %s! You are verified for %s.", result.DisplayName, result.SeasonName))
}

// onDirectMessage supports the DM flow: a user who started verification via
// DM sends the bare ID as a message.
func (b *Bot) onDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}
	if !b.engine.IsPending(m.Author.ID) {
		return
	}

	result, err := b.engine.AttemptVerification(m.Author.ID, m.Content, m.Author.Username)
	if err != nil {
		b.log.Error("dm verification attempt failed", zap.Error(err),
			zap.String("discord_id", m.Author.ID))
		b.dmReply(s, m.ChannelID, "Something went wrong on our side. Please try again later.")
		return
	}

	if !result.Success {
		b.dmReply(s, m.ChannelID, result.Message)
		return
	}

	if err := b.applyMembership(m.Author.ID, result.DisplayName, result.RolesToAssign); err != nil {
		b.log.Error("verified but failed to apply roles", zap.Error(err),
			zap.String("discord_id", m.Author.ID))
		b.dmReply(s, m.ChannelID, fmt.Sprintf(
			"You are verified for %s, but I could not update your roles. Please contact a staff member.",
			result.SeasonName))
		return
	}

	b.dmReply(s, m.ChannelID, fmt.Sprintf(
		"Welcome, %s! You are verified for %s.", result.DisplayName, result.SeasonName))
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("failed to respond to interaction", zap.Error(err))
	}
}

func (b *Bot) dmReply(s *discordgo.Session, channelID, msg string) {
	if _, err := s.ChannelMessageSend(channelID, msg); err != nil {
		b.log.Warn("failed to send dm reply", zap.Error(err))
	}
}

func interactionUser(i *discordgo.InteractionCreate) (id, name string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, i.Member.User.Username
	}
	if i.User != nil {
		return i.User.ID, i.User.Username
	}
	return "", ""
}
