package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

type adminRepository struct {
	c *Client
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(c *Client) admin.Repository {
	return &adminRepository{c: c}
}

func (repo *adminRepository) PendingEvents(ctx context.Context) ([]event.Event, error) {
	var wires []eventWire
	query := url.Values{"status": {event.StatusPending}}
	if err := repo.c.doJSON(ctx, "admin.events", http.MethodGet, "/admin/events", query, nil, &listOf{&wires}); err != nil {
		return nil, err
	}
	return toEvents(wires), nil
}

func (repo *adminRepository) Decide(ctx context.Context, eventID string, decision admin.Decision, reason string) error {
	body := struct {
		Reason string `json:"reason,omitempty"`
	}{Reason: reason}
	path := "/admin/events/" + url.PathEscape(eventID) + "/" + string(decision)
	return repo.c.doJSON(ctx, "admin.events.decide", http.MethodPost, path, nil, body, nil)
}
