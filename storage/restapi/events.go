package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

type eventRepository struct {
	c *Client
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(c *Client) event.Repository {
	return &eventRepository{c: c}
}

func eventPath(id string, rest ...string) string {
	p := "/events/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// notFound maps a 404 on an event route to event.ErrNotFound.
func notFound(err error) error {
	if core.IsAPIStatus(err, http.StatusNotFound) {
		return event.ErrNotFound
	}
	return err
}

func (repo *eventRepository) ListEvents(ctx context.Context) ([]event.Event, error) {
	var wires []eventWire
	if err := repo.c.doJSON(ctx, "events", http.MethodGet, "/events", nil, nil, &listOf{&wires}); err != nil {
		return nil, err
	}
	return toEvents(wires), nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (event.Detail, error) {
	var w detailWire
	if err := repo.c.doJSON(ctx, "events.get", http.MethodGet, eventPath(id), nil, nil, &w); err != nil {
		return event.Detail{}, notFound(err)
	}
	return w.toDetail(), nil
}

func (repo *eventRepository) Register(ctx context.Context, id string) (event.Ticket, error) {
	var t event.Ticket
	err := repo.c.doJSON(ctx, "events.register", http.MethodPost, eventPath(id, "register"), nil, nil, &t)
	switch {
	case core.IsAPIStatus(err, http.StatusConflict):
		return event.Ticket{}, event.ErrAlreadyRegistered
	case err != nil:
		return event.Ticket{}, notFound(err)
	}
	if t.EventID == "" {
		t.EventID = id
	}
	return t, nil
}

func (repo *eventRepository) MyTickets(ctx context.Context) ([]event.Ticket, error) {
	var ts []event.Ticket
	if err := repo.c.doJSON(ctx, "tickets", http.MethodGet, "/tickets", nil, nil, &listOf{&ts}); err != nil {
		return nil, err
	}
	return ts, nil
}

func (repo *eventRepository) Comments(ctx context.Context, id string) ([]event.Comment, error) {
	var cs []event.Comment
	if err := repo.c.doJSON(ctx, "events.comments", http.MethodGet, eventPath(id, "comments"), nil, nil, &listOf{&cs}); err != nil {
		return nil, notFound(err)
	}
	return cs, nil
}

func (repo *eventRepository) AddComment(ctx context.Context, id string, nc event.NewComment) (event.Comment, error) {
	var c event.Comment
	if err := repo.c.doJSON(ctx, "events.comment", http.MethodPost, eventPath(id, "comments"), nil, nc, &c); err != nil {
		return event.Comment{}, notFound(err)
	}
	return c, nil
}

func (repo *eventRepository) Rate(ctx context.Context, id string, nr event.NewRating) error {
	return notFound(repo.c.doJSON(ctx, "events.rate", http.MethodPost, eventPath(id, "ratings"), nil, nr, nil))
}

// CreateEvent posts ne as multipart form data; the schedule travels as a JSON field.
func (repo *eventRepository) CreateEvent(ctx context.Context, ne event.NewEvent, img *event.Image) (event.Created, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	schedule, err := json.Marshal(ne.Schedule)
	if err != nil {
		return event.Created{}, errors.Wrap(err, "marshalling schedule")
	}
	fields := []struct{ name, value string }{
		{"title", ne.Title},
		{"excerpt", ne.Excerpt},
		{"description", ne.Description},
		{"category", ne.Category},
		{"capacity", strconv.Itoa(ne.Capacity)},
		{"tags", ne.EncodedTags},
		{"schedule", string(schedule)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return event.Created{}, errors.Wrapf(err, "writing %s field", f.name)
		}
	}
	if img != nil && img.Content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+escapeQuotes(img.Filename)+`"`)
		h.Set("Content-Type", img.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return event.Created{}, errors.Wrap(err, "creating image part")
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return event.Created{}, errors.Wrap(err, "copying image")
		}
	}
	if err := mw.Close(); err != nil {
		return event.Created{}, errors.Wrap(err, "closing multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, repo.c.endpoint("/events", nil), &buf)
	if err != nil {
		return event.Created{}, errors.Wrap(err, "building events.create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var created struct {
		ID     idString `json:"id"`
		Status string   `json:"status"`
	}
	if err := repo.c.do(ctx, "events.create", req, &created); err != nil {
		return event.Created{}, err
	}
	return event.Created{ID: string(created.ID), Status: created.Status}, nil
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
