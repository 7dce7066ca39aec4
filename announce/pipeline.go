package announce

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/events"
)

// ErrNoSendableChannels is returned when the requesting actor cannot send
// messages anywhere in the guild.
var ErrNoSendableChannels = errors.New("no channels with send permission")

// Session is the slice of *discordgo.Session the pipeline uses.
type Session interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Session = (*discordgo.Session)(nil)

// Pipeline drives one announcement from resolved event to delivered embed.
type Pipeline struct {
	s       Session
	client  *Client
	guildID string
	log     *zap.Logger
	events  events.Publisher
}

func NewPipeline(s Session, client *Client, guildID string, log *zap.Logger, ev events.Publisher) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if ev == nil {
		ev = events.Nop()
	}
	return &Pipeline{s: s, client: client, guildID: guildID, log: log, events: ev}
}

// Resolve fetches and prepares an announcement. Any failure aborts the whole
// pipeline before anything is sent.
func (p *Pipeline) Resolve(ctx context.Context, idOrURL, destination, slotImage string) (*EventAnnouncement, error) {
	return p.client.ResolveEvent(ctx, idOrURL, destination, slotImage)
}

// CandidateChannels lists the guild text channels where the actor can send
// messages. Resolved at presentation time: channel lists and permissions
// drift, so they are never captured eagerly.
func (p *Pipeline) CandidateChannels(actorID string) ([]*discordgo.Channel, error) {
	channels, err := p.s.GuildChannels(p.guildID)
	if err != nil {
		return nil, err
	}

	var out []*discordgo.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		perms, err := p.s.UserChannelPermissions(actorID, ch.ID)
		if err != nil {
			p.log.Debug("permission check failed, skipping channel",
				zap.String("channel", ch.ID), zap.Error(err))
			continue
		}
		if perms&discordgo.PermissionSendMessages != 0 {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSendableChannels
	}
	return out, nil
}

// Deliver posts the rendered announcement verbatim to the chosen channel.
func (p *Pipeline) Deliver(ctx context.Context, channelID string, a *EventAnnouncement) error {
	if _, err := p.s.ChannelMessageSendEmbed(channelID, Render(a)); err != nil {
		return err
	}

	p.events.Publish(ctx, "announcement.delivered", map[string]any{
		"channel_id": channelID,
		"event_name": a.Name,
		"guild_id":   p.guildID,
	})
	p.log.Info("announcement delivered",
		zap.String("channel", channelID), zap.String("event", a.Name))
	return nil
}
