package ticket

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(f *fakeSession, channelID string, n int) {
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for idx := 1; idx <= n; idx++ {
		msg := &discordgo.Message{
			ID:        strconv.Itoa(idx),
			Content:   fmt.Sprintf("message %d", idx),
			Author:    &discordgo.User{Username: "alice"},
			Timestamp: base.Add(time.Duration(idx) * time.Minute),
		}
		f.history[channelID] = append(f.history[channelID], msg)
	}
}

func TestTranscriptOrderedOldestFirst(t *testing.T) {
	f := newFakeSession(testGuild)
	ch := f.addChannel("ticket-alice", discordgo.ChannelTypeGuildText, nil)
	seedHistory(f, ch.ID, 5)

	tr, err := CaptureTranscript(f, ch.ID, "ticket-alice")
	require.NoError(t, err)
	assert.Equal(t, "ticket-alice-transcript.txt", tr.Filename)

	var positions []int
	for idx := 1; idx <= 5; idx++ {
		positions = append(positions, strings.Index(tr.Content, fmt.Sprintf("message %d\n", idx)))
	}
	for idx := range positions {
		require.GreaterOrEqual(t, positions[idx], 0, "message %d missing", idx+1)
		if idx > 0 {
			assert.Greater(t, positions[idx], positions[idx-1], "messages out of order")
		}
	}
}

func TestTranscriptPagesFullHistory(t *testing.T) {
	f := newFakeSession(testGuild)
	ch := f.addChannel("ticket-alice", discordgo.ChannelTypeGuildText, nil)
	seedHistory(f, ch.ID, 250)

	tr, err := CaptureTranscript(f, ch.ID, "ticket-alice")
	require.NoError(t, err)

	first := strings.Index(tr.Content, "message 1\n")
	middle := strings.Index(tr.Content, "message 125\n")
	last := strings.Index(tr.Content, "message 250\n")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, middle, 0)
	require.GreaterOrEqual(t, last, 0)
	assert.Less(t, first, middle)
	assert.Less(t, middle, last)

	assert.Equal(t, 250, strings.Count(tr.Content, "alice: message"))
}

func TestTranscriptIncludesAttachments(t *testing.T) {
	f := newFakeSession(testGuild)
	ch := f.addChannel("ticket-alice", discordgo.ChannelTypeGuildText, nil)
	f.history[ch.ID] = []*discordgo.Message{
		{
			ID:        "1",
			Content:   "see screenshot",
			Author:    &discordgo.User{Username: "alice"},
			Timestamp: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
			Attachments: []*discordgo.MessageAttachment{
				{URL: "https://cdn.example/shot.png"},
			},
		},
	}

	tr, err := CaptureTranscript(f, ch.ID, "ticket-alice")
	require.NoError(t, err)
	assert.Contains(t, tr.Content, "[2025-08-01 12:00:00] alice: see screenshot")
	assert.Contains(t, tr.Content, "attachment: https://cdn.example/shot.png")
}

func TestTranscriptFetchFailure(t *testing.T) {
	f := newFakeSession(testGuild)
	ch := f.addChannel("ticket-alice", discordgo.ChannelTypeGuildText, nil)
	f.failMessages = true

	_, err := CaptureTranscript(f, ch.ID, "ticket-alice")
	assert.Error(t, err)
}
