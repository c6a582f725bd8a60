package inmemdb

import (
	"context"
	"net/http"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
)

type adminRepository struct {
	conn *Conn
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(conn *Conn) admin.Repository {
	return &adminRepository{conn: conn}
}

func (repo *adminRepository) requireAdminLocked() error {
	usr, err := repo.conn.currentLocked()
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return errForbidden
	}
	return nil
}

func (repo *adminRepository) PendingEvents(context.Context) ([]event.Event, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	if err := repo.requireAdminLocked(); err != nil {
		return nil, err
	}
	events := make([]event.Event, 0)
	for _, id := range db.eventOrder {
		if row := db.events[id]; row.Status == event.StatusPending {
			events = append(events, row.listing())
		}
	}
	return events, nil
}

func (repo *adminRepository) Decide(_ context.Context, eventID string, decision admin.Decision, reason string) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	if err := repo.requireAdminLocked(); err != nil {
		return err
	}
	row, ok := db.events[eventID]
	if !ok {
		return event.ErrNotFound
	}
	if row.Status != event.StatusPending {
		return &core.APIError{StatusCode: http.StatusBadRequest, Message: "Event is not pending"}
	}

	n := notification.Notification{EventID: row.ID, Kind: "event_" + string(decision)}
	switch decision {
	case admin.DecisionApprove:
		row.Status = event.StatusApproved
		n.Title = "Event approved"
		n.Message = row.Title + " is now published"
	default:
		row.Status = event.StatusRejected
		n.Title = "Event rejected"
		n.Message = row.Title + " was rejected: " + reason
	}
	db.notifyLocked(row.owner, n)
	return nil
}
