package handlers

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/announce"
	"convoy-bot/lang"
)

// Discord caps select menus at 25 options.
const maxSelectOptions = 25

func announceCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "announce",
			Description: "Create an event announcement",
		},
	}
}

func (h *Handlers) handleAnnounceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "announce_modal",
			Title:    "Event Announcement",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "event_link",
						Label:       "Event link or ID",
						Style:       discordgo.TextInputShort,
						Placeholder: "https://truckersmp.com/events/12345",
						Required:    true,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID: "destination",
						Label:    "Destination",
						Style:    discordgo.TextInputShort,
						Required: true,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "slot_image",
						Label:       "Slot image URL",
						Style:       discordgo.TextInputShort,
						Placeholder: "https://...",
						Required:    true,
					},
				}},
			},
		},
	})
	if err != nil {
		h.log.Warn("announce modal respond failed", zap.Error(err))
	}
}

func (h *Handlers) handleAnnounceModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	link := modalValue(data, "event_link")
	destination := modalValue(data, "destination")
	slotImage := modalValue(data, "slot_image")

	h.deferEphemeral(s, i)

	a, err := h.announce.Resolve(context.Background(), link, destination, slotImage)
	if err != nil {
		var fe *announce.FetchError
		if errors.As(err, &fe) {
			h.editResponse(s, i, lang.T("announce_fetch_failed", "error", fe.Cause.Error()))
		} else {
			h.editResponse(s, i, lang.T("announce_fetch_failed", "error", err.Error()))
		}
		return
	}

	userID := i.Member.User.ID
	channels, err := h.announce.CandidateChannels(userID)
	if err != nil {
		if errors.Is(err, announce.ErrNoSendableChannels) {
			h.editResponse(s, i, lang.T("announce_no_channels"))
		} else {
			h.editResponse(s, i, lang.T("announce_send_failed", "error", err.Error()))
		}
		return
	}

	opts := make([]discordgo.SelectMenuOption, 0, len(channels))
	for _, ch := range channels {
		opts = append(opts, discordgo.SelectMenuOption{Label: ch.Name, Value: ch.ID})
		if len(opts) == maxSelectOptions {
			break
		}
	}

	h.mu.Lock()
	h.pending[userID] = a
	h.mu.Unlock()

	content := lang.T("announce_pick_channel")
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    "announce_channel_select",
					Placeholder: lang.T("announce_pick_channel"),
					Options:     opts,
				},
			},
		},
	}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		h.log.Warn("announce select respond failed", zap.Error(err))
	}
}

func (h *Handlers) handleAnnounceSelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	channelID := values[0]
	userID := i.Member.User.ID

	h.mu.Lock()
	a := h.pending[userID]
	delete(h.pending, userID)
	h.mu.Unlock()

	if a == nil {
		h.updateMessage(s, i, lang.T("announce_expired"))
		return
	}

	if err := h.announce.Deliver(context.Background(), channelID, a); err != nil {
		h.updateMessage(s, i, lang.T("announce_send_failed", "error", err.Error()))
		return
	}
	h.updateMessage(s, i, lang.T("announce_sent", "channel", channelID))
}

// updateMessage replaces the ephemeral select prompt with a final notice and
// drops the menu.
func (h *Handlers) updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		h.log.Warn("announce update failed", zap.Error(err))
	}
}

func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return ti.Value
			}
		}
	}
	return ""
}
