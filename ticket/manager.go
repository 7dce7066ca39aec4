package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"convoy-bot/events"
	"convoy-bot/lang"
	"convoy-bot/storage"
)

type State string

const (
	StateOpen    State = "open"
	StateClosed  State = "closed"
	StateDeleted State = "deleted"
)

// Ticket is one support conversation, reconstructed from the backing channel:
// the name carries the prefix and the open/closed distinction, the member
// view overwrite carries the owner. Nothing here survives a restart on its
// own; the guild is the source of truth.
type Ticket struct {
	ChannelID string
	Name      string
	OwnerID   string
	State     State
	CreatedAt time.Time
}

const (
	ownerAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory
	staffAllow = ownerAllow | discordgo.PermissionManageMessages
	botAllow   = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory | discordgo.PermissionManageChannels
	memberAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory
)

const closedPrefix = "closed-"

type ManagerConfig struct {
	GuildID        string
	BotID          string
	CategoryName   string
	Prefix         string
	StaffRole      string
	AuditChannelID string
	DeleteDelay    time.Duration

	Log    *zap.Logger
	Locker OwnerLocker
	Store  storage.TicketStore
	Events events.Publisher
}

// Manager owns the ticket lifecycle: admission, permission overwrites, the
// control panel, and the open → closed → deleted transitions.
type Manager struct {
	s   Session
	cfg ManagerConfig
	log *zap.Logger

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

func NewManager(s Session, cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Locker == nil {
		cfg.Locker = NopLocker()
	}
	if cfg.Store == nil {
		cfg.Store = storage.Nop()
	}
	if cfg.Events == nil {
		cfg.Events = events.Nop()
	}
	return &Manager{s: s, cfg: cfg, log: cfg.Log, sleep: time.Sleep}
}

// Open creates a ticket channel for the owner, unless one is already open.
func (m *Manager) Open(ctx context.Context, owner *discordgo.User, reason string) (*Ticket, error) {
	release, ok, err := m.cfg.Locker.Acquire(ctx, owner.ID)
	if err != nil {
		// Lock infrastructure trouble falls back to scan-only admission.
		m.log.Warn("owner lock unavailable", zap.String("owner", owner.ID), zap.Error(err))
	} else if !ok {
		return nil, ErrOpenInProgress
	}
	defer release()

	channels, err := m.s.GuildChannels(m.cfg.GuildID)
	if err != nil {
		return nil, &ChannelOperationError{Op: "list", Err: err}
	}

	categoryID, created, err := m.ensureCategory(channels)
	if err != nil {
		return nil, err
	}
	if created {
		m.log.Info("ticket category created", zap.String("category", m.cfg.CategoryName))
	}

	if existing := m.findOpenTicket(channels, owner.ID); existing != nil {
		return nil, &AlreadyOpenError{ChannelID: existing.ID}
	}

	name := m.uniqueName(channels, owner.Username)

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: m.cfg.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: owner.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ownerAllow},
	}
	if roleID, ok := m.staffRoleID(); ok {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: staffAllow,
		})
	} else {
		m.log.Warn("staff role not found, ticket visible to owner only", zap.String("role", m.cfg.StaffRole))
	}
	if m.cfg.BotID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: m.cfg.BotID, Type: discordgo.PermissionOverwriteTypeMember, Allow: botAllow,
		})
	}

	ch, err := m.s.GuildChannelCreateComplex(m.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, &ChannelOperationError{Op: "create", Err: err}
	}

	t := &Ticket{
		ChannelID: ch.ID,
		Name:      name,
		OwnerID:   owner.ID,
		State:     StateOpen,
		CreatedAt: time.Now().UTC(),
	}

	m.postControlPanel(ch.ID, owner, reason)

	if err := m.cfg.Store.RecordOpen(ctx, storage.Record{
		ChannelID: t.ChannelID,
		GuildID:   m.cfg.GuildID,
		OwnerID:   t.OwnerID,
		State:     string(StateOpen),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.CreatedAt,
	}); err != nil {
		m.log.Warn("ticket store write failed", zap.String("channel", t.ChannelID), zap.Error(err))
	}
	m.cfg.Events.Publish(ctx, "ticket.opened", map[string]any{
		"channel_id": t.ChannelID,
		"owner_id":   t.OwnerID,
		"guild_id":   m.cfg.GuildID,
	})

	m.log.Info("ticket opened",
		zap.String("channel", t.ChannelID),
		zap.String("owner", t.OwnerID),
		zap.String("name", name))
	return t, nil
}

func (m *Manager) postControlPanel(channelID string, owner *discordgo.User, reason string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Support Ticket",
		Description: lang.T("ticket_welcome", "user", owner.ID),
		Color:       0x57F287,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Owner: " + owner.Username},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Reason", Value: reason,
		})
	}

	_, err := m.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", owner.ID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Close Ticket", Style: discordgo.DangerButton, CustomID: "ticket_close"},
					discordgo.Button{Label: "Delete Ticket", Style: discordgo.SecondaryButton, CustomID: "ticket_delete"},
				},
			},
		},
	})
	if err != nil {
		// The channel works without the panel; close/delete stay reachable
		// through the slash commands.
		m.log.Warn("control panel send failed", zap.String("channel", channelID), zap.Error(err))
	}
}

// Close captures the transcript, delivers it, makes the channel read-only for
// the owner and renames it with the closed marker. Transcript delivery is
// best-effort; the state transition is not.
func (m *Manager) Close(ctx context.Context, actor *discordgo.Member, channelID string) (*Transcript, error) {
	t, err := m.Lookup(channelID)
	if err != nil {
		return nil, err
	}
	if t.State != StateOpen {
		return nil, ErrAlreadyClosed
	}
	if actor.User.ID != t.OwnerID && !m.IsStaff(actor) {
		return nil, &PermissionDeniedError{Action: "close ticket"}
	}

	tr, err := CaptureTranscript(m.s, channelID, t.Name)
	if err != nil {
		m.log.Warn("transcript capture failed", zap.String("channel", channelID), zap.Error(err))
		tr = &Transcript{
			Filename: t.Name + "-transcript.txt",
			Content:  "=== TICKET TRANSCRIPT ===\n\n(failed to fetch messages)\n",
		}
	}

	m.deliverTranscript(t, tr, actor)

	if err := m.s.ChannelPermissionSet(channelID, t.OwnerID, discordgo.PermissionOverwriteTypeMember,
		discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory,
		discordgo.PermissionSendMessages); err != nil {
		return nil, &ChannelOperationError{Op: "revoke write", Err: err}
	}

	if _, err := m.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{Name: closedPrefix + t.Name}); err != nil {
		return nil, &ChannelOperationError{Op: "rename", Err: err}
	}

	if err := m.cfg.Store.RecordState(ctx, channelID, string(StateClosed)); err != nil {
		m.log.Warn("ticket store write failed", zap.String("channel", channelID), zap.Error(err))
	}
	m.cfg.Events.Publish(ctx, "ticket.closed", map[string]any{
		"channel_id": channelID,
		"owner_id":   t.OwnerID,
		"closed_by":  actor.User.ID,
	})

	m.log.Info("ticket closed",
		zap.String("channel", channelID),
		zap.String("owner", t.OwnerID),
		zap.String("closed_by", actor.User.ID))
	return tr, nil
}

func (m *Manager) deliverTranscript(t *Ticket, tr *Transcript, actor *discordgo.Member) {
	delivered := false
	if dm, err := m.s.UserChannelCreate(t.OwnerID); err == nil {
		_, err = m.s.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
			Content: lang.T("ticket_transcript_dm"),
			Files:   []*discordgo.File{transcriptFile(tr)},
		})
		delivered = err == nil
	}
	if !delivered {
		m.log.Warn("transcript DM failed", zap.String("owner", t.OwnerID))
		_, _ = m.s.ChannelMessageSend(t.ChannelID, lang.T("ticket_transcript_fail"))
	}

	if m.cfg.AuditChannelID == "" {
		return
	}
	embed := &discordgo.MessageEmbed{
		Title: "Ticket Closed",
		Color: 0xED4245,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: t.Name, Inline: true},
			{Name: "Opened By", Value: fmt.Sprintf("<@%s>", t.OwnerID), Inline: true},
			{Name: "Closed By", Value: fmt.Sprintf("<@%s>", actor.User.ID), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := m.s.ChannelMessageSendComplex(m.cfg.AuditChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  []*discordgo.File{transcriptFile(tr)},
	}); err != nil {
		m.log.Warn("audit transcript send failed",
			zap.String("channel", m.cfg.AuditChannelID), zap.Error(err))
	}
}

func transcriptFile(tr *Transcript) *discordgo.File {
	return &discordgo.File{
		Name:        tr.Filename,
		ContentType: "text/plain",
		Reader:      strings.NewReader(tr.Content),
	}
}

// Delete destroys the ticket channel after the grace delay. Staff only; the
// delay exists so the actor sees the acknowledgment before the channel goes.
func (m *Manager) Delete(ctx context.Context, actor *discordgo.Member, channelID string) error {
	t, err := m.Lookup(channelID)
	if err != nil {
		return err
	}
	if !m.IsStaff(actor) {
		return &PermissionDeniedError{Action: "delete ticket"}
	}

	m.sleep(m.cfg.DeleteDelay)

	if _, err := m.s.ChannelDelete(channelID); err != nil {
		return &ChannelOperationError{Op: "delete", Err: err}
	}

	if err := m.cfg.Store.RecordState(ctx, channelID, string(StateDeleted)); err != nil {
		m.log.Warn("ticket store write failed", zap.String("channel", channelID), zap.Error(err))
	}
	m.cfg.Events.Publish(ctx, "ticket.deleted", map[string]any{
		"channel_id": channelID,
		"owner_id":   t.OwnerID,
		"deleted_by": actor.User.ID,
	})

	m.log.Info("ticket deleted",
		zap.String("channel", channelID),
		zap.String("deleted_by", actor.User.ID))
	return nil
}

// AddUser grants a user access to an open ticket. Owner or staff.
func (m *Manager) AddUser(actor *discordgo.Member, channelID, userID string) error {
	t, err := m.Lookup(channelID)
	if err != nil {
		return err
	}
	if actor.User.ID != t.OwnerID && !m.IsStaff(actor) {
		return &PermissionDeniedError{Action: "add user"}
	}
	if err := m.s.ChannelPermissionSet(channelID, userID,
		discordgo.PermissionOverwriteTypeMember, memberAllow, 0); err != nil {
		return &ChannelOperationError{Op: "grant access", Err: err}
	}
	return nil
}

// RemoveUser revokes a user's access to a ticket. Owner or staff; the owner's
// own overwrite is not removable this way.
func (m *Manager) RemoveUser(actor *discordgo.Member, channelID, userID string) error {
	t, err := m.Lookup(channelID)
	if err != nil {
		return err
	}
	if actor.User.ID != t.OwnerID && !m.IsStaff(actor) {
		return &PermissionDeniedError{Action: "remove user"}
	}
	if userID == t.OwnerID {
		return &PermissionDeniedError{Action: "remove ticket owner"}
	}
	if err := m.s.ChannelPermissionDelete(channelID, userID); err != nil {
		return &ChannelOperationError{Op: "revoke access", Err: err}
	}
	return nil
}

// Lookup reconstructs a Ticket from a channel by naming convention and
// permission overwrites. This is a heuristic: externally edited overwrites
// can misattribute ownership.
func (m *Manager) Lookup(channelID string) (*Ticket, error) {
	ch, err := m.s.Channel(channelID)
	if err != nil {
		return nil, &ChannelOperationError{Op: "fetch", Err: err}
	}
	return m.fromChannel(ch)
}

func (m *Manager) fromChannel(ch *discordgo.Channel) (*Ticket, error) {
	openPrefix := m.cfg.Prefix + "-"

	var name string
	state := StateOpen
	switch {
	case strings.HasPrefix(ch.Name, openPrefix):
		name = ch.Name
	case strings.HasPrefix(ch.Name, closedPrefix+openPrefix):
		name = strings.TrimPrefix(ch.Name, closedPrefix)
		state = StateClosed
	default:
		return nil, ErrNotTicket
	}

	ownerID := ""
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember &&
			ow.ID != m.cfg.BotID &&
			ow.Allow&discordgo.PermissionViewChannel != 0 {
			ownerID = ow.ID
			break
		}
	}
	if ownerID == "" {
		return nil, ErrNotTicket
	}

	createdAt, _ := discordgo.SnowflakeTimestamp(ch.ID)
	return &Ticket{
		ChannelID: ch.ID,
		Name:      name,
		OwnerID:   ownerID,
		State:     state,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// ListOpen scans the guild for open tickets.
func (m *Manager) ListOpen() ([]*Ticket, error) {
	channels, err := m.s.GuildChannels(m.cfg.GuildID)
	if err != nil {
		return nil, &ChannelOperationError{Op: "list", Err: err}
	}

	var out []*Ticket
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		t, err := m.fromChannel(ch)
		if err != nil || t.State != StateOpen {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// IsStaff reports whether the member holds the configured staff role.
func (m *Manager) IsStaff(member *discordgo.Member) bool {
	roleID, ok := m.staffRoleID()
	if !ok {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (m *Manager) staffRoleID() (string, bool) {
	roles, err := m.s.GuildRoles(m.cfg.GuildID)
	if err != nil {
		m.log.Warn("role lookup failed", zap.Error(err))
		return "", false
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, m.cfg.StaffRole) {
			return r.ID, true
		}
	}
	return "", false
}

func (m *Manager) ensureCategory(channels []*discordgo.Channel) (string, bool, error) {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, m.cfg.CategoryName) {
			return ch.ID, false, nil
		}
	}
	ch, err := m.s.GuildChannelCreateComplex(m.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name: m.cfg.CategoryName,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", false, &ChannelOperationError{Op: "create category", Err: err}
	}
	return ch.ID, true, nil
}

func (m *Manager) findOpenTicket(channels []*discordgo.Channel, ownerID string) *discordgo.Channel {
	openPrefix := m.cfg.Prefix + "-"
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText || !strings.HasPrefix(ch.Name, openPrefix) {
			continue
		}
		for _, ow := range ch.PermissionOverwrites {
			if ow.Type == discordgo.PermissionOverwriteTypeMember &&
				ow.ID == ownerID &&
				ow.Allow&discordgo.PermissionViewChannel != 0 {
				return ch
			}
		}
	}
	return nil
}

// uniqueName suffixes an incrementing counter until no existing channel
// shares the name.
func (m *Manager) uniqueName(channels []*discordgo.Channel, username string) string {
	taken := make(map[string]bool, len(channels))
	for _, ch := range channels {
		taken[ch.Name] = true
	}

	base := m.cfg.Prefix + "-" + sanitizeName(username)
	name := base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	return name
}

// sanitizeName lowers a username into channel-name-safe form.
func sanitizeName(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "user"
	}
	return out
}
