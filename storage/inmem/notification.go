package inmemdb

import (
	"context"
	"sort"

	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
)

type notificationRepository struct {
	conn *Conn
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(conn *Conn) notification.Repository {
	return &notificationRepository{conn: conn}
}

// List returns the inbox of the current user, newest first.
func (repo *notificationRepository) List(context.Context) ([]notification.Notification, error) {
	db := repo.conn.db
	db.RLock()
	defer db.RUnlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return nil, err
	}
	rows := db.notifications[usr.Username]
	items := make([]notification.Notification, 0, len(rows))
	for _, n := range rows {
		items = append(items, *n)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, ids []string) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, n := range db.notifications[usr.Username] {
		if wanted[n.ID] {
			n.IsRead = true
		}
	}
	return nil
}

func (repo *notificationRepository) MarkAllRead(context.Context) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return err
	}
	for _, n := range db.notifications[usr.Username] {
		n.IsRead = true
	}
	return nil
}

func (repo *notificationRepository) Delete(_ context.Context, id string) error {
	db := repo.conn.db
	db.Lock()
	defer db.Unlock()

	usr, err := repo.conn.currentLocked()
	if err != nil {
		return err
	}
	rows := db.notifications[usr.Username]
	kept := rows[:0]
	for _, n := range rows {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	db.notifications[usr.Username] = kept
	return nil
}
