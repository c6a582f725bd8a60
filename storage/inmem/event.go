package inmemdb

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
)

type eventRepository struct {
	conn *Conn
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(conn *Conn) event.Repository {
	return &eventRepository{conn: conn}
}

// ListEvents returns the approved events, oldest first.
func (repo *eventRepository) ListEvents(context.Context) ([]event.Event, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	events := make([]event.Event, 0, len(db.eventOrder))
	for _, id := range db.eventOrder {
		row := db.events[id]
		if row.Status != event.StatusApproved {
			continue
		}
		events = append(events, row.listing())
	}
	return events, nil
}

func (repo *eventRepository) GetEvent(_ context.Context, id string) (event.Detail, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	row, ok := db.events[id]
	if !ok {
		return event.Detail{}, event.ErrNotFound
	}
	d := row.Detail
	d.Event = row.listing()
	d.Schedule = append([]event.Session(nil), row.Schedule...)
	if usr, err := repo.conn.currentLocked(); err == nil {
		d.IsRegistered = row.attendeeOf(usr.Username) != nil
	}
	if n := len(row.ratings); n > 0 {
		var sum int
		for _, s := range row.ratings {
			sum += s
		}
		d.AverageScore = float64(sum) / float64(n)
	}
	return d, nil
}

func (repo *eventRepository) Register(_ context.Context, id string) (event.Ticket, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return event.Ticket{}, err
	}
	row, ok := db.events[id]
	if !ok || row.Status != event.StatusApproved {
		return event.Ticket{}, event.ErrNotFound
	}
	if row.attendeeOf(usr.Username) != nil {
		return event.Ticket{}, event.ErrAlreadyRegistered
	}
	if row.Capacity > 0 && len(row.attendees) >= row.Capacity {
		return event.Ticket{}, &core.APIError{StatusCode: http.StatusBadRequest, Message: "Event is full"}
	}
	a := row.register(db, usr, dashboard.ApprovalPending)
	db.notifyLocked(row.owner, notification.Notification{
		Title:   "New registration",
		Message: usr.FullName() + " registered for " + row.Title,
		Kind:    "registration",
		EventID: row.ID,
	})
	return ticketOf(row, a), nil
}

func ticketOf(row *eventRow, a *attendeeRow) event.Ticket {
	return event.Ticket{
		TicketID:       a.TicketID,
		EventID:        row.ID,
		EventTitle:     row.Title,
		Status:         a.Status,
		ApprovalStatus: a.ApprovalStatus,
		QRCode:         `{"ticket_id":"` + a.TicketID + `"}`,
		Registered:     a.Registered,
	}
}

func (repo *eventRepository) MyTickets(context.Context) ([]event.Ticket, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return nil, err
	}
	tickets := make([]event.Ticket, 0)
	for _, id := range db.eventOrder {
		row := db.events[id]
		if a := row.attendeeOf(usr.Username); a != nil {
			tickets = append(tickets, ticketOf(row, a))
		}
	}
	return tickets, nil
}

func (repo *eventRepository) Comments(_ context.Context, id string) ([]event.Comment, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	row, ok := db.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	return append([]event.Comment{}, row.comments...), nil
}

func (repo *eventRepository) AddComment(_ context.Context, id string, nc event.NewComment) (event.Comment, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return event.Comment{}, err
	}
	row, ok := db.events[id]
	if !ok {
		return event.Comment{}, event.ErrNotFound
	}
	c := event.Comment{
		ID:        db.nextID(),
		Author:    usr.FullName(),
		Content:   nc.Content,
		CreatedAt: nowFunc().UTC(),
	}
	row.comments = append(row.comments, c)
	return c, nil
}

// Rate only accepts ratings from approved attendees; a second rating replaces the first.
func (repo *eventRepository) Rate(_ context.Context, id string, nr event.NewRating) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return err
	}
	row, ok := db.events[id]
	if !ok {
		return event.ErrNotFound
	}
	a := row.attendeeOf(usr.Username)
	if a == nil || a.ApprovalStatus != dashboard.ApprovalApproved {
		return &core.APIError{StatusCode: http.StatusForbidden, Message: "Only attendees can rate this event"}
	}
	row.ratings[usr.Username] = nr.Score
	return nil
}

// CreateEvent stores ne as a pending event hosted by the current organizer.
func (repo *eventRepository) CreateEvent(_ context.Context, ne event.NewEvent, img *event.Image) (event.Created, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return event.Created{}, err
	}
	if !usr.IsOrganizer() {
		return event.Created{}, errForbidden
	}
	if len(ne.EncodedTags) > event.MaxEncodedTagsLen {
		return event.Created{}, &core.APIError{StatusCode: http.StatusBadRequest, Message: "tags: value too long"}
	}
	audience, err := event.DecodeAudience(ne.EncodedTags)
	if err != nil {
		return event.Created{}, &core.APIError{StatusCode: http.StatusBadRequest, Message: "tags: " + err.Error()}
	}

	d := event.Detail{
		Event: event.Event{
			ID:          db.nextID(),
			Title:       ne.Title,
			Excerpt:     ne.Excerpt,
			Description: ne.Description,
			Tags:        event.PlainTags(ne.EncodedTags),
			Host:        []string{usr.FullName()},
			Category:    ne.Category,
			Capacity:    ne.Capacity,
			Status:      event.StatusPending,
			CreatedAt:   nowFunc().UTC().Format(time.RFC3339),
		},
		Audience: audience,
		Schedule: append([]event.Session(nil), ne.Schedule...),
	}
	if dates := event.ScheduleDates(ne.Schedule); len(dates) > 0 {
		d.Date = dates[0]
		d.StartDate = dates[0]
		d.EndDate = dates[len(dates)-1]
	}
	if len(ne.Schedule) > 0 {
		d.Location = ne.Schedule[0].Place()
	}
	if img != nil && img.Content != nil {
		if _, err := io.Copy(io.Discard, img.Content); err != nil {
			return event.Created{}, err
		}
		d.ImageURL = "/media/events/" + d.ID + "/" + strings.ReplaceAll(img.Filename, "/", "_")
	}

	db.events[d.ID] = &eventRow{Detail: d, owner: usr.Username, ratings: make(map[string]int)}
	db.eventOrder = append(db.eventOrder, d.ID)
	return event.Created{ID: d.ID, Status: d.Status}, nil
}
