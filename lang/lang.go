package lang

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	mu       sync.RWMutex
	messages = defaults()
)

func defaults() map[string]string {
	return map[string]string{
		"ticket_created":          "Ticket created: <#{channel}>",
		"ticket_already_open":     "You already have an open ticket: <#{channel}>",
		"ticket_open_in_progress": "Your previous ticket request is still being processed. Try again in a moment.",
		"ticket_not_a_ticket":     "This is not a ticket channel.",
		"ticket_welcome":          "Welcome <@{user}>!\n\nPlease describe your issue and a staff member will assist you shortly.",
		"ticket_closed":           "Ticket closed. The channel is now read-only.",
		"ticket_already_closed":   "This ticket is already closed.",
		"ticket_deleting":         "This ticket will be deleted shortly.",
		"ticket_delete_failed":    "Failed to delete the ticket channel: {error}",
		"ticket_close_confirm":    "Are you sure you want to close this ticket?",
		"ticket_close_cancelled":  "Ticket close cancelled.",
		"ticket_permission":       "You do not have permission to do that.",
		"ticket_user_added":       "Added <@{user}> to this ticket.",
		"ticket_user_removed":     "Removed <@{user}> from this ticket.",
		"ticket_transcript_dm":    "Transcript of your ticket is attached.",
		"ticket_transcript_fail":  "Could not deliver the transcript by direct message. Ask a staff member for a copy.",
		"announce_fetch_failed":   "Could not fetch the event: {error}",
		"announce_no_channels":    "You have no channels where you can send messages.",
		"announce_pick_channel":   "Select channel to send announcement...",
		"announce_sent":           "Announcement sent to <#{channel}>",
		"announce_send_failed":    "Failed to send the announcement: {error}",
		"announce_expired":        "This announcement session has expired. Run /announce again.",
	}
}

// Load replaces the built-in messages with the contents of a yaml file. The
// file is a flat key: value map; unknown keys are accepted, missing keys fall
// back to the built-ins.
func Load(path string, log *zap.Logger) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("could not read lang file, using built-in messages",
			zap.String("path", path), zap.Error(err))
		return
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Warn("could not parse lang file, using built-in messages",
			zap.String("path", path), zap.Error(err))
		return
	}

	m := defaults()
	for k, v := range raw {
		m[k] = v
	}

	mu.Lock()
	messages = m
	mu.Unlock()

	log.Info("lang file loaded", zap.String("path", path), zap.Int("keys", len(raw)))
}

// T renders a message by key. Pairs are placeholder name/value alternations:
// T("ticket_created", "channel", ch.ID).
func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}
