package inmemdb

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
)

type dashboardRepository struct {
	conn *Conn
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(conn *Conn) dashboard.Repository {
	return &dashboardRepository{conn: conn}
}

// hostedLocked returns the event if the current user hosts it or is an admin.
func (repo *dashboardRepository) hostedLocked(eventID string) (*eventRow, error) {
	usr, err := repo.conn.currentLocked()
	if err != nil {
		return nil, err
	}
	row, ok := repo.conn.db.events[eventID]
	if !ok {
		return nil, event.ErrNotFound
	}
	if row.owner != usr.Username && !usr.IsAdmin() {
		return nil, errForbidden
	}
	return row, nil
}

func (repo *dashboardRepository) Snapshot(_ context.Context, eventID string) (dashboard.Snapshot, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	row, err := repo.hostedLocked(eventID)
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	snap := dashboard.Snapshot{
		Event: dashboard.EventSummary{
			ID:       row.ID,
			Title:    row.Title,
			Capacity: row.Capacity,
			Status:   row.Status,
		},
		Schedule:  append([]event.Session(nil), row.Schedule...),
		Attendees: make([]dashboard.Attendee, 0, len(row.attendees)),
	}
	for _, a := range row.attendees {
		att := a.Attendee
		att.CheckedInDates = make(map[string]time.Time, len(a.CheckedInDates))
		for d, t := range a.CheckedInDates {
			att.CheckedInDates[d] = t
		}
		snap.Attendees = append(snap.Attendees, att)

		snap.Stats.Total++
		switch a.ApprovalStatus {
		case dashboard.ApprovalApproved:
			snap.Stats.Approved++
		case dashboard.ApprovalRejected:
			snap.Stats.Rejected++
		default:
			snap.Stats.Pending++
		}
		if len(a.CheckedInDates) > 0 {
			snap.Stats.CheckedIn++
		}
	}
	sort.SliceStable(snap.Attendees, func(i, j int) bool {
		return snap.Attendees[i].Registered.Before(snap.Attendees[j].Registered)
	})
	return snap, nil
}

func (repo *dashboardRepository) decideLocked(row *eventRow, a *attendeeRow, action dashboard.Action) {
	status := dashboard.ApprovalRejected
	if action == dashboard.ActionApprove {
		status = dashboard.ApprovalApproved
	}
	a.ApprovalStatus = status
	if a.username != "" {
		repo.conn.db.notifyLocked(a.username, notification.Notification{
			Title:   "Registration " + status,
			Message: "Your registration for " + row.Title + " was " + status,
			Kind:    "registration_" + status,
			EventID: row.ID,
		})
	}
}

func (repo *dashboardRepository) Decide(_ context.Context, eventID, ticketID string, action dashboard.Action) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	row, err := repo.hostedLocked(eventID)
	if err != nil {
		return err
	}
	a := row.attendee(ticketID)
	if a == nil {
		return &core.APIError{StatusCode: http.StatusNotFound, Message: "Registration not found"}
	}
	repo.decideLocked(row, a, action)
	return nil
}

// BulkDecide only processes pending registrations; the others are skipped.
func (repo *dashboardRepository) BulkDecide(_ context.Context, eventID string, ticketIDs []string, action dashboard.Action) (dashboard.BulkResult, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	row, err := repo.hostedLocked(eventID)
	if err != nil {
		return dashboard.BulkResult{}, err
	}
	var res dashboard.BulkResult
	for _, id := range ticketIDs {
		a := row.attendee(id)
		if a == nil || a.ApprovalStatus != dashboard.ApprovalPending {
			res.Skipped++
			continue
		}
		repo.decideLocked(row, a, action)
		res.Processed++
	}
	return res, nil
}

func (repo *dashboardRepository) CheckIn(_ context.Context, eventID, ticketID, date string) (dashboard.CheckInResult, error) {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	row, err := repo.hostedLocked(eventID)
	if err != nil {
		return dashboard.CheckInResult{}, err
	}
	a := row.attendee(ticketID)
	if a == nil {
		return dashboard.CheckInResult{}, &core.APIError{StatusCode: http.StatusNotFound, Message: "Ticket not found"}
	}
	if a.ApprovalStatus != dashboard.ApprovalApproved {
		return dashboard.CheckInResult{}, &core.APIError{StatusCode: http.StatusBadRequest, Message: "Ticket is not approved"}
	}
	if !containsDate(event.ScheduleDates(row.Schedule), date) {
		return dashboard.CheckInResult{}, &core.APIError{StatusCode: http.StatusBadRequest, Message: "Event does not take place on " + date}
	}
	if t, ok := a.CheckedInDates[date]; ok {
		return dashboard.CheckInResult{AlreadyCheckedIn: true, CheckedInAt: t, Name: a.Name}, nil
	}
	now := nowFunc().UTC()
	a.CheckedInDates[date] = now
	a.Status = dashboard.StatusPresent
	return dashboard.CheckInResult{CheckedInAt: now, Name: a.Name}, nil
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}
