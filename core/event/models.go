package event

import (
	"io"
	"time"
)

// Event statuses as reported by the API.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Event is one record of the events listing. Dates are ISO strings as sent by the API.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Host        []string `json:"host"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	CreatedAt   string   `json:"created_at"`
	Popularity  int      `json:"popularity"`
	Capacity    int      `json:"capacity,omitempty"`
	Registered  int      `json:"registered,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// PrimaryHost is the first listed host, if any.
func (e Event) PrimaryHost() string {
	if len(e.Host) == 0 {
		return ""
	}
	return e.Host[0]
}

// Session is one scheduled occurrence of an event.
type Session struct {
	Date        string `json:"date" validate:"required,isodate"`
	StartTime   string `json:"start_time" validate:"required,hhmm"`
	EndTime     string `json:"end_time" validate:"required,hhmm"`
	Location    string `json:"location,omitempty" validate:"required_unless=IsOnline true"`
	IsOnline    bool   `json:"is_online"`
	Address     string `json:"address,omitempty"`
	Address2    string `json:"address2,omitempty"`
	MeetingLink string `json:"meeting_link,omitempty"`
}

// Detail is an event with its schedule, as displayed on the event page.
type Detail struct {
	Event
	Audience     Audience       `json:"audience"`
	Schedule     []Session      `json:"schedule"`
	Groups       []SessionGroup `json:"groups"`
	AverageScore float64        `json:"average_score"`
	IsRegistered bool           `json:"is_registered"`
}

type Ticket struct {
	TicketID       string    `json:"ticket_id"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	Status         string    `json:"status"`
	ApprovalStatus string    `json:"approval_status"`
	QRCode         string    `json:"qr_code,omitempty"`
	Registered     time.Time `json:"registered"`
}

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment contains the information needed to post a Comment.
type NewComment struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// NewRating contains the information needed to rate an attended event.
type NewRating struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

// NewEvent contains the information needed to create an Event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Excerpt     string    `json:"excerpt" validate:"max=300"`
	Description string    `json:"description" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	Audience    Audience  `json:"audience"`
	Schedule    []Session `json:"schedule" validate:"required,min=1,dive"`

	// EncodedTags is filled by Service.Create from Audience.
	EncodedTags string `json:"-"`
}

// Image is an optional picture uploaded along a NewEvent.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Created is the answer to an event creation.
type Created struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
