package restapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
)

type notificationRepository struct {
	c *Client
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(c *Client) notification.Repository {
	return &notificationRepository{c: c}
}

func (repo *notificationRepository) List(ctx context.Context) ([]notification.Notification, error) {
	var items []notification.Notification
	if err := repo.c.doJSON(ctx, "notifications", http.MethodGet, "/notifications", nil, nil, &listOf{&items}); err != nil {
		return nil, err
	}
	return items, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return repo.c.doJSON(ctx, "notifications.mark_read", http.MethodPost, "/notifications/mark-read", nil, body, nil)
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context) error {
	return repo.c.doJSON(ctx, "notifications.mark_all_read", http.MethodPost, "/notifications/mark-all-read", nil, nil, nil)
}

func (repo *notificationRepository) Delete(ctx context.Context, id string) error {
	return repo.c.doJSON(ctx, "notifications.delete", http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil, nil)
}
