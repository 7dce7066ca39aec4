package announce

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnnouncement() *EventAnnouncement {
	return &EventAnnouncement{
		Name:        "Grand Convoy",
		Description: "Monthly convoy across the map.",
		Destination: "Rotterdam",
		SlotImage:   "https://cdn.example/slot.png",
		RouteImage:  "https://cdn.example/route.png",
		MeetupUTC:   "2025-09-01 14:30 UTC",
		MeetupLocal: "2025-09-01 20:15 NPT",
		StartUTC:    "2025-09-01 15:00 UTC",
		StartLocal:  "2025-09-01 20:45 NPT",
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := sampleAnnouncement()

	first, err := json.Marshal(Render(a))
	require.NoError(t, err)
	second, err := json.Marshal(Render(a))
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must render byte-identical output")
}

func TestRenderFields(t *testing.T) {
	embed := Render(sampleAnnouncement())

	assert.Equal(t, "Grand Convoy", embed.Title)
	assert.Equal(t, "Monthly convoy across the map.", embed.Description)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://cdn.example/slot.png", embed.Image.URL)

	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "Destination", embed.Fields[0].Name)
	assert.Equal(t, "Rotterdam", embed.Fields[0].Value)
	assert.Equal(t, "2025-09-01 14:30 UTC | 2025-09-01 20:15 NPT", embed.Fields[1].Value)
	assert.Equal(t, "2025-09-01 15:00 UTC | 2025-09-01 20:45 NPT", embed.Fields[2].Value)
	assert.Equal(t, "Route Image", embed.Fields[3].Name)
	assert.Equal(t, "[Click to Open](https://cdn.example/route.png)", embed.Fields[3].Value)
}

func TestRenderRouteImageOnlyWhenPresent(t *testing.T) {
	a := sampleAnnouncement()
	a.RouteImage = ""

	embed := Render(a)
	require.Len(t, embed.Fields, 3)
	for _, f := range embed.Fields {
		assert.NotEqual(t, "Route Image", f.Name)
	}
}
