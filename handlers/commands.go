package handlers

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/announce"
	"convoy-bot/ticket"
)

// Handlers routes interactions to the ticket manager and the announcement
// pipeline. Each inbound interaction is handled independently; the only
// shared state is the pending announcement per user, which exists for the
// single wait-for-selection step.
type Handlers struct {
	tickets  *ticket.Manager
	announce *announce.Pipeline
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]*announce.EventAnnouncement
}

func New(t *ticket.Manager, a *announce.Pipeline, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		tickets:  t,
		announce: a,
		log:      log,
		pending:  make(map[string]*announce.EventAnnouncement),
	}
}

func Commands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0)
	cmds = append(cmds, ticketCommands()...)
	cmds = append(cmds, announceCommands()...)
	return cmds
}

func (h *Handlers) Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			h.handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			h.handleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			h.handleModal(s, i)
		}
	})
}

func (h *Handlers) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	switch name {
	case "ticket":
		h.handleTicketCommand(s, i)
	case "announce":
		h.handleAnnounceCommand(s, i)
	default:
		h.log.Warn("unknown command", zap.String("name", name))
	}
}

func (h *Handlers) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch customID {
	case "ticket_close":
		h.handleCloseButton(s, i)
	case "ticket_close_confirm":
		h.handleCloseConfirm(s, i)
	case "ticket_close_cancel":
		h.handleCloseCancel(s, i)
	case "ticket_delete":
		h.handleDeleteButton(s, i)
	case "announce_channel_select":
		h.handleAnnounceSelect(s, i)
	default:
		h.log.Warn("unknown component", zap.String("custom_id", customID))
	}
}

func (h *Handlers) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID

	switch customID {
	case "announce_modal":
		h.handleAnnounceModal(s, i)
	default:
		h.log.Warn("unknown modal", zap.String("custom_id", customID))
	}
}

func (h *Handlers) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		h.log.Warn("interaction respond failed", zap.Error(err))
	}
}

func (h *Handlers) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.log.Warn("interaction defer failed", zap.Error(err))
	}
}

func (h *Handlers) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		h.log.Warn("interaction edit failed", zap.Error(err))
	}
}

func (h *Handlers) followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		h.log.Warn("interaction followup failed", zap.Error(err))
	}
}

func subOptMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	om := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		om[opt.Name] = opt
	}
	return om
}
