package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/lang"
	"convoy-bot/ticket"
)

func ticketCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ticket",
			Description: "Support ticket management",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name: "open", Description: "Open a support ticket",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What the ticket is about"},
					},
				},
				{
					Name: "close", Description: "Close the current ticket",
					Type: discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name: "delete", Description: "Delete the current ticket (staff only)",
					Type: discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name: "add", Description: "Add a user to the current ticket",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to add", Required: true},
					},
				},
				{
					Name: "remove", Description: "Remove a user from the current ticket",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to remove", Required: true},
					},
				},
				{
					Name: "list", Description: "List open tickets (staff only)",
					Type: discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
	}
}

func (h *Handlers) handleTicketCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "open":
		h.handleTicketOpen(s, i, sub.Options)
	case "close":
		h.closeTicket(s, i)
	case "delete":
		h.deleteTicket(s, i)
	case "add":
		h.handleTicketAdd(s, i, sub.Options)
	case "remove":
		h.handleTicketRemove(s, i, sub.Options)
	case "list":
		h.handleTicketList(s, i)
	}
}

func (h *Handlers) handleTicketOpen(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	reason := ""
	if om := subOptMap(opts); om["reason"] != nil {
		reason = om["reason"].StringValue()
	}

	h.deferEphemeral(s, i)

	t, err := h.tickets.Open(context.Background(), i.Member.User, reason)
	if err != nil {
		h.editResponse(s, i, ticketErrText(err))
		return
	}
	h.editResponse(s, i, lang.T("ticket_created", "channel", t.ChannelID))
}

func (h *Handlers) closeTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.deferEphemeral(s, i)

	if _, err := h.tickets.Close(context.Background(), i.Member, i.ChannelID); err != nil {
		h.editResponse(s, i, ticketErrText(err))
		return
	}

	h.editResponse(s, i, lang.T("ticket_closed"))
	_, _ = s.ChannelMessageSend(i.ChannelID, lang.T("ticket_closed"))
}

func (h *Handlers) deleteTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Public acknowledgment first: the grace delay exists so it is seen
	// before the channel disappears.
	h.respond(s, i, lang.T("ticket_deleting"), false)

	if err := h.tickets.Delete(context.Background(), i.Member, i.ChannelID); err != nil {
		var perm *ticket.PermissionDeniedError
		if errors.As(err, &perm) || errors.Is(err, ticket.ErrNotTicket) {
			h.followupEphemeral(s, i, ticketErrText(err))
			return
		}
		h.log.Error("ticket delete failed", zap.String("channel", i.ChannelID), zap.Error(err))
		h.followupEphemeral(s, i, lang.T("ticket_delete_failed", "error", err.Error()))
	}
}

func (h *Handlers) handleTicketAdd(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	om := subOptMap(opts)
	target := om["user"].UserValue(s)

	if err := h.tickets.AddUser(i.Member, i.ChannelID, target.ID); err != nil {
		h.respond(s, i, ticketErrText(err), true)
		return
	}
	h.respond(s, i, lang.T("ticket_user_added", "user", target.ID), false)
}

func (h *Handlers) handleTicketRemove(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	om := subOptMap(opts)
	target := om["user"].UserValue(s)

	if err := h.tickets.RemoveUser(i.Member, i.ChannelID, target.ID); err != nil {
		h.respond(s, i, ticketErrText(err), true)
		return
	}
	h.respond(s, i, lang.T("ticket_user_removed", "user", target.ID), false)
}

func (h *Handlers) handleTicketList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.tickets.IsStaff(i.Member) {
		h.respond(s, i, lang.T("ticket_permission"), true)
		return
	}

	tickets, err := h.tickets.ListOpen()
	if err != nil {
		h.respond(s, i, ticketErrText(err), true)
		return
	}
	if len(tickets) == 0 {
		h.respond(s, i, "No open tickets.", true)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Open Tickets** (%d):\n", len(tickets)))
	for _, t := range tickets {
		sb.WriteString(fmt.Sprintf("• <#%s> — <@%s>, opened %s\n",
			t.ChannelID, t.OwnerID, t.CreatedAt.Format("2006-01-02 15:04")))
	}
	h.respond(s, i, sb.String(), true)
}

func (h *Handlers) handleCloseButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: lang.T("ticket_close_confirm"),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Confirm Close", Style: discordgo.DangerButton, CustomID: "ticket_close_confirm"},
						discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "ticket_close_cancel"},
					},
				},
			},
		},
	})
	if err != nil {
		h.log.Warn("close confirm respond failed", zap.Error(err))
	}
}

func (h *Handlers) handleCloseConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.closeTicket(s, i)
}

func (h *Handlers) handleCloseCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    lang.T("ticket_close_cancelled"),
			Components: []discordgo.MessageComponent{},
		},
	})
}

func (h *Handlers) handleDeleteButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.deleteTicket(s, i)
}

func ticketErrText(err error) string {
	var already *ticket.AlreadyOpenError
	var perm *ticket.PermissionDeniedError

	switch {
	case errors.As(err, &already):
		return lang.T("ticket_already_open", "channel", already.ChannelID)
	case errors.As(err, &perm):
		return lang.T("ticket_permission")
	case errors.Is(err, ticket.ErrOpenInProgress):
		return lang.T("ticket_open_in_progress")
	case errors.Is(err, ticket.ErrNotTicket):
		return lang.T("ticket_not_a_ticket")
	case errors.Is(err, ticket.ErrAlreadyClosed):
		return lang.T("ticket_already_closed")
	default:
		return "Something went wrong: " + err.Error()
	}
}
