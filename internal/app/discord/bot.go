// internal/app/discord/bot.go

// Package discord is the thin Discord front end: it registers the /verify
// slash command, relays verification attempts to the verify engine, and
// applies the resulting roles and nicknames through the Discord REST API.
// All decisions live in the engine and the stores; this package only talks
// wire protocol.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/app/system/verify"
)

// Bot owns the gateway session for one guild.
type Bot struct {
	session *discordgo.Session
	guildID string
	engine  *verify.Engine
	cfg     *configstore.Store
	users   *userdb.DB
	log     *zap.Logger

	// command id of the registered /verify command, kept for cleanup
	commandID string
}

// New creates the bot without connecting. Call Start to open the gateway.
func New(token, guildID string, engine *verify.Engine, cfg *configstore.Store, users *userdb.DB, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if guildID == "" {
		return nil, fmt.Errorf("discord guild id is empty")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages

	return &Bot{
		session: session,
		guildID: guildID,
		engine:  engine,
		cfg:     cfg,
		users:   users,
		log:     logger,
	}, nil
}

// Start opens the gateway connection and registers the /verify command.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(b.onDirectMessage)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	cmd, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, &discordgo.ApplicationCommand{
		Name:        "verify",
		Description: "Verify your membership with your verification ID",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "id",
				Description: "The verification ID you were given",
				Required:    true,
			},
		},
	})
	if err != nil {
		b.session.Close()
		return fmt.Errorf("register /verify command: %w", err)
	}
	b.commandID = cmd.ID

	b.log.Info("discord bot connected",
		zap.String("guild", b.guildID),
		zap.String("bot_user", b.session.State.User.Username))
	return nil
}

// Close unregisters the command and closes the gateway.
func (b *Bot) Close() error {
	if b.commandID != "" {
		if err := b.session.ApplicationCommandDelete(b.session.State.User.ID, b.guildID, b.commandID); err != nil {
			b.log.Warn("failed to delete /verify command", zap.Error(err))
		}
	}
	return b.session.Close()
}

// Session exposes the underlying session for the scaffolding applier.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}
