package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bmwamba/darasa/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif.ID = uuid.New().String()
	repo.db.table[notif.ID] = &notif
	return notif, nil
}

func (repo *notificationRepository) QueryNotificationsByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0, len(repo.db.table))
	for _, notif := range repo.db.table {
		if notif.UserID == userID {
			notifs = append(notifs, *notif)
		}
	}
	// newest first
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id, userID string) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif, ok := repo.db.table[id]
	if !ok || notif.UserID != userID {
		return notification.Notification{}, notification.ErrNotFound
	}
	notif.IsRead = true
	return *notif, nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, notif := range repo.db.table {
		if notif.UserID == userID {
			notif.IsRead = true
		}
	}
	return nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	notif, ok := repo.db.table[id]
	if !ok || notif.UserID != userID {
		return notification.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *notificationRepository) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, notif := range repo.db.table {
		if notif.UserID == userID && !notif.IsRead {
			count++
		}
	}
	return count, nil
}
