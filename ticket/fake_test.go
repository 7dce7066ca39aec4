package ticket

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeSession is an in-memory guild: channels with overwrites, roles, message
// history and DM delivery, enough to drive the manager end to end.
type fakeSession struct {
	mu sync.Mutex

	guildID  string
	nextID   int
	channels map[string]*discordgo.Channel
	roles    []*discordgo.Role

	// history is oldest-first per channel; ChannelMessages serves
	// newest-first pages from it like the real API.
	history map[string][]*discordgo.Message

	sent     map[string][]*discordgo.MessageSend
	sentText map[string][]string

	dmChannels map[string]string

	failDM       bool
	failDelete   bool
	failMessages bool
	createdCount int
	deletedCount int
}

func newFakeSession(guildID string) *fakeSession {
	return &fakeSession{
		guildID:    guildID,
		channels:   make(map[string]*discordgo.Channel),
		history:    make(map[string][]*discordgo.Message),
		sent:       make(map[string][]*discordgo.MessageSend),
		sentText:   make(map[string][]string),
		dmChannels: make(map[string]string),
	}
}

func (f *fakeSession) newID() string {
	f.nextID++
	return "ch-" + strconv.Itoa(f.nextID)
}

func (f *fakeSession) addChannel(name string, chType discordgo.ChannelType, overwrites []*discordgo.PermissionOverwrite) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := &discordgo.Channel{
		ID:                   f.newID(),
		Name:                 name,
		Type:                 chType,
		GuildID:              f.guildID,
		PermissionOverwrites: overwrites,
	}
	f.channels[ch.ID] = ch
	return ch
}

func (f *fakeSession) addRole(id, name string) {
	f.roles = append(f.roles, &discordgo.Role{ID: id, Name: name})
}

func (f *fakeSession) channelByName(name string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	return ch, nil
}

func (f *fakeSession) GuildChannels(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.createdCount++
	return f.addChannel(data.Name, data.Type, data.PermissionOverwrites), nil
}

func (f *fakeSession) ChannelEditComplex(channelID string, data *discordgo.ChannelEdit, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	if data.Name != "" {
		ch.Name = data.Name
	}
	return ch, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	if f.failDelete {
		return nil, fmt.Errorf("delete refused")
	}
	delete(f.channels, channelID)
	f.deletedCount++
	return ch, nil
}

func (f *fakeSession) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %s not found", channelID)
	}
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID && ow.Type == targetType {
			ow.Allow = allow
			ow.Deny = deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID: targetID, Type: targetType, Allow: allow, Deny: deny,
	})
	return nil
}

func (f *fakeSession) ChannelPermissionDelete(channelID, targetID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %s not found", channelID)
	}
	for idx, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID {
			ch.PermissionOverwrites = append(ch.PermissionOverwrites[:idx], ch.PermissionOverwrites[idx+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMessages {
		return nil, fmt.Errorf("history unavailable")
	}

	msgs := f.history[channelID]
	end := len(msgs)
	if beforeID != "" {
		for idx, m := range msgs {
			if m.ID == beforeID {
				end = idx
				break
			}
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	page := msgs[start:end]
	out := make([]*discordgo.Message, 0, len(page))
	for idx := len(page) - 1; idx >= 0; idx-- {
		out = append(out, page[idx])
	}
	return out, nil
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentText[channelID] = append(f.sentText[channelID], content)
	return &discordgo.Message{Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.failDM {
		return nil, fmt.Errorf("cannot DM user")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.dmChannels[recipientID]
	if !ok {
		id = "dm-" + recipientID
		f.dmChannels[recipientID] = id
	}
	return &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeSession) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

var _ Session = (*fakeSession)(nil)
