package dashboard

import (
	"strings"
	"time"

	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

// Attendance statuses
const (
	StatusPresent = "present"
	StatusPending = "pending"
	StatusAbsent  = "absent"
)

// Approval statuses
const (
	ApprovalApproved = "approved"
	ApprovalPending  = "pending"
	ApprovalRejected = "rejected"
)

type View string

const (
	ViewApproval   View = "approval"
	ViewAttendance View = "attendance"
)

// ParseView returns the View named by s, defaulting to ViewApproval.
func ParseView(s string) View {
	if View(strings.ToLower(strings.TrimSpace(s))) == ViewAttendance {
		return ViewAttendance
	}
	return ViewApproval
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionApprove:
		return ActionApprove, true
	case ActionReject:
		return ActionReject, true
	}
	return "", false
}

// status is the approval status an action leads to.
func (a Action) status() string {
	if a == ActionApprove {
		return ApprovalApproved
	}
	return ApprovalRejected
}

func (a Action) pastTense() string {
	if a == ActionApprove {
		return "approved"
	}
	return "rejected"
}

// Attendee is one registration of the event; TicketID is its identity.
type Attendee struct {
	TicketID       string               `json:"ticket_id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Status         string               `json:"status"`
	ApprovalStatus string               `json:"approval_status"`
	Registered     time.Time            `json:"registered"`
	CheckedInDates map[string]time.Time `json:"checked_in_dates"`
}

func (a Attendee) clone() Attendee {
	dates := make(map[string]time.Time, len(a.CheckedInDates))
	for d, t := range a.CheckedInDates {
		dates[d] = t
	}
	a.CheckedInDates = dates
	return a
}

type Stats struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	CheckedIn int `json:"checked_in"`
}

type EventSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// Snapshot is the canonical dashboard state as served by the API.
type Snapshot struct {
	Event     EventSummary    `json:"event"`
	Schedule  []event.Session `json:"schedule"`
	Attendees []Attendee      `json:"attendees"`
	Stats     Stats           `json:"stats"`
}

type BulkResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

type CheckInResult struct {
	AlreadyCheckedIn bool      `json:"already_checked_in"`
	CheckedInAt      time.Time `json:"checked_in_at"`
	Name             string    `json:"name,omitempty"`
}

// Row is an attendee as displayed for the current view and date.
type Row struct {
	Attendee
	DisplayStatus string     `json:"display_status"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	Selected      bool       `json:"selected"`
}
