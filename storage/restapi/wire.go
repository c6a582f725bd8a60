package restapi

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

// listOf decodes either a bare JSON array or a paginated `{"results": [...]}` envelope into dst.
type listOf struct {
	dst interface{}
}

func (l *listOf) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		return json.Unmarshal(data, l.dst)
	}
	var env struct {
		Results json.RawMessage `json:"results"`
		Items   json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch {
	case len(env.Results) > 0:
		return json.Unmarshal(env.Results, l.dst)
	case len(env.Items) > 0:
		return json.Unmarshal(env.Items, l.dst)
	}
	return errors.New("expected a list")
}

// tagsField is the `tags` attribute of an event: an encoded string in the
// API's storage format or an already split list.
type tagsField struct {
	raw  string
	list []string
}

func (t *tagsField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		return json.Unmarshal(data, &t.list)
	}
	return json.Unmarshal(data, &t.raw)
}

func (t tagsField) audience() event.Audience {
	if t.raw == "" {
		return event.Audience{HostTags: t.list}
	}
	a, err := event.DecodeAudience(t.raw)
	if err != nil {
		return event.Audience{HostTags: []string{t.raw}}
	}
	return a
}

func (t tagsField) plain() []string {
	if t.raw == "" {
		return t.list
	}
	return event.PlainTags(t.raw)
}

// idString accepts numeric and string identifiers.
type idString string

func (id *idString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = idString(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = idString(n.String())
	return nil
}

// hostField accepts a single host name or a list of them.
type hostField []string

func (h *hostField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*h = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" {
		*h = []string{s}
	}
	return nil
}

type eventWire struct {
	ID          idString  `json:"id"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Description string    `json:"description"`
	Tags        tagsField `json:"tags"`
	Host        hostField `json:"host"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	CreatedAt   string    `json:"created_at"`
	Popularity  int       `json:"popularity"`
	Capacity    int       `json:"capacity"`
	Registered  int       `json:"registered"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
}

func (w eventWire) toEvent() event.Event {
	return event.Event{
		ID:          string(w.ID),
		Title:       w.Title,
		Excerpt:     w.Excerpt,
		Description: w.Description,
		Tags:        w.Tags.plain(),
		Host:        []string(w.Host),
		Category:    w.Category,
		Location:    w.Location,
		Date:        w.Date,
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
		CreatedAt:   w.CreatedAt,
		Popularity:  w.Popularity,
		Capacity:    w.Capacity,
		Registered:  w.Registered,
		ImageURL:    w.ImageURL,
		Status:      w.Status,
	}
}

func toEvents(wires []eventWire) []event.Event {
	events := make([]event.Event, 0, len(wires))
	for _, w := range wires {
		events = append(events, w.toEvent())
	}
	return events
}

type detailWire struct {
	eventWire
	Schedule     []event.Session `json:"schedule"`
	AverageScore float64         `json:"average_score"`
	IsRegistered bool            `json:"is_registered"`
}

func (w detailWire) toDetail() event.Detail {
	return event.Detail{
		Event:        w.toEvent(),
		Audience:     w.Tags.audience(),
		Schedule:     w.Schedule,
		AverageScore: w.AverageScore,
		IsRegistered: w.IsRegistered,
	}
}
