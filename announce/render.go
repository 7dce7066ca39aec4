package announce

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0xED4245

// Render turns an announcement into its embed. Pure formatting: identical
// input yields identical output, and the route image field appears only when
// the event actually has one.
func Render(a *EventAnnouncement) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Name,
		Description: a.Description,
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Destination", Value: a.Destination},
			{Name: "Meetup Time", Value: fmt.Sprintf("%s | %s", a.MeetupUTC, a.MeetupLocal)},
			{Name: "Departure Time", Value: fmt.Sprintf("%s | %s", a.StartUTC, a.StartLocal)},
		},
		Image: &discordgo.MessageEmbedImage{URL: a.SlotImage},
	}

	if a.RouteImage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Route Image",
			Value: fmt.Sprintf("[Click to Open](%s)", a.RouteImage),
		})
	}

	return embed
}
