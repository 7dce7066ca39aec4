package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/config"
)

type Bot struct {
	Session *discordgo.Session
	cfg     *config.Config
	log     *zap.Logger
	ready   chan struct{}
}

func New(cfg *config.Config, log *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers
	return &Bot{
		Session: s,
		cfg:     cfg,
		log:     log,
		ready:   make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("bot online", zap.String("user", r.User.Username))
		select {
		case <-b.ready:
		default:
			close(b.ready)
		}
	})
	return b.Session.Open()
}

func (b *Bot) Stop() {
	_ = b.Session.Close()
}

// BotUserID blocks until the gateway is ready, then returns the bot's own
// user ID.
func (b *Bot) BotUserID() string {
	<-b.ready
	return b.Session.State.User.ID
}

// RegisterCommands bulk-overwrites the guild's slash commands once the
// session is ready.
func (b *Bot) RegisterCommands(cmds []*discordgo.ApplicationCommand) []*discordgo.ApplicationCommand {
	<-b.ready

	appID := b.Session.State.User.ID
	guildID := b.cfg.Discord.GuildID

	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		b.log.Error("command registration failed", zap.Error(err))
		return nil
	}

	b.log.Info("slash commands registered",
		zap.Int("count", len(registered)), zap.String("guild", guildID))
	return registered
}

func (b *Bot) CleanupCommands() {
	<-b.ready
	appID := b.Session.State.User.ID
	guildID := b.cfg.Discord.GuildID
	if _, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{}); err != nil {
		b.log.Error("command cleanup failed", zap.Error(err))
		return
	}
	b.log.Info("slash commands removed")
}
