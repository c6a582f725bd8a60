package notification

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

var ErrNothingSelected = errors.New("no notification selected")

type (
	Repository interface {
		List(ctx context.Context) ([]Notification, error)
		MarkRead(ctx context.Context, ids []string) error
		MarkAllRead(ctx context.Context) error
		Delete(ctx context.Context, id string) error
	}

	// Service keeps a local copy of the inbox; mutations patch it first and
	// always re-fetch it afterwards.
	Service struct {
		repo   Repository
		alerts *core.Alerts

		mu    sync.Mutex
		inbox Inbox
	}
)

func NewService(repo Repository, alerts *core.Alerts) *Service {
	if alerts == nil {
		alerts = core.NewAlerts(nil)
	}
	return &Service{repo: repo, alerts: alerts, inbox: newInbox(nil)}
}

func (svc *Service) Inbox() Inbox {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	items := make([]Notification, len(svc.inbox.Items))
	copy(items, svc.inbox.Items)
	return newInbox(items)
}

// Refresh fetches the inbox.
func (svc *Service) Refresh(ctx context.Context) (Inbox, error) {
	items, err := svc.repo.List(ctx)
	if err != nil {
		return Inbox{}, pkgerrors.Wrap(err, "listing notifications")
	}
	svc.mu.Lock()
	svc.inbox = newInbox(items)
	svc.mu.Unlock()
	return svc.Inbox(), nil
}

func (svc *Service) reload(ctx context.Context) error {
	_, err := svc.Refresh(ctx)
	return err
}

func (svc *Service) patch(fn func(n *Notification) bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	kept := make([]Notification, 0, len(svc.inbox.Items))
	for _, n := range svc.inbox.Items {
		if fn(&n) {
			kept = append(kept, n)
		}
	}
	svc.inbox = newInbox(kept)
}

func (svc *Service) MarkRead(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		svc.alerts.Warning("No notification selected")
		return ErrNothingSelected
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	err := core.Reconcile(ctx,
		func() {
			svc.patch(func(n *Notification) bool {
				if set[n.ID] {
					n.IsRead = true
				}
				return true
			})
		},
		func(ctx context.Context) error { return svc.repo.MarkRead(ctx, ids) },
		svc.reload,
	)
	if err != nil {
		svc.alerts.Error("Failed to mark notifications as read: %v", err)
		return pkgerrors.Wrap(err, "marking notifications read")
	}
	return nil
}

func (svc *Service) MarkAllRead(ctx context.Context) error {
	err := core.Reconcile(ctx,
		func() {
			svc.patch(func(n *Notification) bool {
				n.IsRead = true
				return true
			})
		},
		svc.repo.MarkAllRead,
		svc.reload,
	)
	if err != nil {
		svc.alerts.Error("Failed to mark all notifications as read: %v", err)
		return pkgerrors.Wrap(err, "marking all notifications read")
	}
	svc.alerts.Success("All notifications marked as read")
	return nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	err := core.Reconcile(ctx,
		func() { svc.patch(func(n *Notification) bool { return n.ID != id }) },
		func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		svc.reload,
	)
	if err != nil {
		svc.alerts.Error("Failed to delete notification: %v", err)
		return pkgerrors.Wrapf(err, "deleting notification %s", id)
	}
	svc.alerts.Success("Notification deleted")
	return nil
}
