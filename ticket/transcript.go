package ticket

import (
	"fmt"
	"strings"
)

// Transcript is the textual record of a ticket's message history, captured at
// close time.
type Transcript struct {
	Filename string
	Content  string
}

const transcriptPageSize = 100

// CaptureTranscript fetches the full message history of a channel, oldest
// first. The platform returns newest-first pages of at most 100 messages, so
// pages are walked backwards with a before-ID cursor and reversed at the end.
func CaptureTranscript(s Session, channelID, channelName string) (*Transcript, error) {
	var sb strings.Builder
	sb.WriteString("=== TICKET TRANSCRIPT ===\n\n")

	var pages [][]string
	before := ""
	for {
		msgs, err := s.ChannelMessages(channelID, transcriptPageSize, before, "", "")
		if err != nil {
			if before == "" {
				return nil, fmt.Errorf("fetch messages: %w", err)
			}
			// Partial history is better than none.
			break
		}
		if len(msgs) == 0 {
			break
		}

		// msgs is newest-first within the page.
		lines := make([]string, 0, len(msgs))
		for idx := len(msgs) - 1; idx >= 0; idx-- {
			m := msgs[idx]
			ts := m.Timestamp.UTC().Format("2006-01-02 15:04:05")
			lines = append(lines, fmt.Sprintf("[%s] %s: %s\n", ts, m.Author.Username, m.Content))
			for _, a := range m.Attachments {
				lines = append(lines, fmt.Sprintf("  attachment: %s\n", a.URL))
			}
		}
		pages = append(pages, lines)

		before = msgs[len(msgs)-1].ID
		if len(msgs) < transcriptPageSize {
			break
		}
	}

	for idx := len(pages) - 1; idx >= 0; idx-- {
		for _, line := range pages[idx] {
			sb.WriteString(line)
		}
	}

	return &Transcript{
		Filename: channelName + "-transcript.txt",
		Content:  sb.String(),
	}, nil
}
