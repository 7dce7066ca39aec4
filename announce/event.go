package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EventAnnouncement holds everything needed to render one announcement. It
// lives only from form submission to delivery.
type EventAnnouncement struct {
	Name        string
	Description string
	Destination string
	SlotImage   string
	RouteImage  string
	MeetupUTC   string
	MeetupLocal string
	StartUTC    string
	StartLocal  string
}

// FetchError wraps any network, parse or missing-field problem while
// resolving a remote event. The pipeline aborts on it; nothing partial is
// ever sent.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch event: %v", e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Convoys in this community run on Nepal time next to UTC. A fixed zone keeps
// rendering deterministic regardless of the host tzdata.
var nptZone = time.FixedZone("NPT", 5*3600+45*60)

const timeLayout = "2006-01-02 15:04 MST"

// Client fetches event metadata from a TruckersMP-style API.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func NewClient(base string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

type eventResponse struct {
	Error    bool `json:"error"`
	Response struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		StartAt     string `json:"start_at"`
		MeetupAt    string `json:"meetup_at"`
		RouteImage  string `json:"route_image"`
	} `json:"response"`
}

// ResolveEvent extracts the event ID from a free-form link, fetches the
// metadata and combines it with the operator-supplied destination and slot
// image into a renderable announcement.
func (c *Client) ResolveEvent(ctx context.Context, idOrURL, destination, slotImage string) (*EventAnnouncement, error) {
	id, err := ExtractEventID(idOrURL)
	if err != nil {
		return nil, &FetchError{Cause: err}
	}

	url := fmt.Sprintf("%s/v2/events/%s", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Cause: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	if body.Error {
		return nil, &FetchError{Cause: fmt.Errorf("event %s not found", id)}
	}

	ev := body.Response
	if ev.Name == "" || ev.Description == "" || ev.StartAt == "" || ev.MeetupAt == "" {
		return nil, &FetchError{Cause: fmt.Errorf("event %s is missing required fields", id)}
	}

	meetup, err := parseEventTime(ev.MeetupAt)
	if err != nil {
		return nil, &FetchError{Cause: fmt.Errorf("meetup_at: %w", err)}
	}
	start, err := parseEventTime(ev.StartAt)
	if err != nil {
		return nil, &FetchError{Cause: fmt.Errorf("start_at: %w", err)}
	}

	c.log.Debug("event resolved", zap.String("id", id), zap.String("name", ev.Name))

	return &EventAnnouncement{
		Name:        ev.Name,
		Description: ev.Description,
		Destination: destination,
		SlotImage:   slotImage,
		RouteImage:  ev.RouteImage,
		MeetupUTC:   meetup.UTC().Format(timeLayout),
		MeetupLocal: meetup.In(nptZone).Format(timeLayout),
		StartUTC:    start.UTC().Format(timeLayout),
		StartLocal:  start.In(nptZone).Format(timeLayout),
	}, nil
}

// parseEventTime accepts the API's "2006-01-02 15:04:05" form as well as
// RFC 3339; both are UTC.
func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return t, nil
}

// ExtractEventID pulls the numeric event ID out of a bare ID or an event URL
// whose trailing segment is "<id>" or "<id>-<slug>".
func ExtractEventID(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", fmt.Errorf("no event ID in %q", s)
	}
	return s[:end], nil
}
