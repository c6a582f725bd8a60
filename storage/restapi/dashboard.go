package restapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
)

type dashboardRepository struct {
	c *Client
}

var _ dashboard.Repository = (*dashboardRepository)(nil)

func NewDashboardRepository(c *Client) dashboard.Repository {
	return &dashboardRepository{c: c}
}

func registrationsPath(eventID string) string {
	return "/events/" + url.PathEscape(eventID) + "/registrations"
}

func (repo *dashboardRepository) Snapshot(ctx context.Context, eventID string) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	path := "/events/" + url.PathEscape(eventID) + "/dashboard"
	if err := repo.c.doJSON(ctx, "events.dashboard", http.MethodGet, path, nil, nil, &snap); err != nil {
		return dashboard.Snapshot{}, err
	}
	for i := range snap.Attendees {
		if snap.Attendees[i].CheckedInDates == nil {
			snap.Attendees[i].CheckedInDates = map[string]time.Time{}
		}
	}
	return snap, nil
}

func (repo *dashboardRepository) Decide(ctx context.Context, eventID, ticketID string, action dashboard.Action) error {
	path := registrationsPath(eventID) + "/" + url.PathEscape(ticketID) + "/" + string(action)
	return repo.c.doJSON(ctx, "registrations.decide", http.MethodPost, path, nil, nil, nil)
}

func (repo *dashboardRepository) BulkDecide(ctx context.Context, eventID string, ticketIDs []string, action dashboard.Action) (dashboard.BulkResult, error) {
	body := struct {
		Action    dashboard.Action `json:"action"`
		TicketIDs []string         `json:"ticket_ids"`
	}{Action: action, TicketIDs: ticketIDs}
	var res dashboard.BulkResult
	path := registrationsPath(eventID) + "/bulk-action"
	if err := repo.c.doJSON(ctx, "registrations.bulk", http.MethodPost, path, nil, body, &res); err != nil {
		return dashboard.BulkResult{}, err
	}
	return res, nil
}

func (repo *dashboardRepository) CheckIn(ctx context.Context, eventID, ticketID, date string) (dashboard.CheckInResult, error) {
	body := struct {
		EventID  string `json:"event_id"`
		TicketID string `json:"ticket_id"`
		Date     string `json:"date"`
	}{EventID: eventID, TicketID: ticketID, Date: date}
	var res dashboard.CheckInResult
	if err := repo.c.doJSON(ctx, "checkin", http.MethodPost, "/checkin", nil, body, &res); err != nil {
		return dashboard.CheckInResult{}, err
	}
	return res, nil
}
