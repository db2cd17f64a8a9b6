package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/notification"
)

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      r.Kind,
		Title:     r.Title,
		Message:   r.Message,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

type NotificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (repo *NotificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	notif.ID = uuid.New().String()
	query := repo.db.Rebind(`
		INSERT INTO notifications (id, user_id, kind, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, query,
		notif.ID, notif.UserID, notif.Kind, notif.Title, notif.Message, notif.IsRead, notif.CreatedAt,
	); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return notif, nil
}

func (repo *NotificationRepository) QueryNotificationsByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	var rows []notificationRow
	query := repo.db.Rebind(`SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC`)
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.toNotification())
	}
	return notifs, nil
}

func (repo *NotificationRepository) MarkNotificationRead(ctx context.Context, id, userID string) (notification.Notification, error) {
	query := repo.db.Rebind(`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`)
	res, err := repo.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "marking notification read")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}

	var row notificationRow
	getQuery := repo.db.Rebind(`SELECT * FROM notifications WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, getQuery, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "reloading notification")
	}
	return row.toNotification(), nil
}

func (repo *NotificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	query := repo.db.Rebind(`UPDATE notifications SET is_read = TRUE WHERE user_id = ?`)
	if _, err := repo.db.ExecContext(ctx, query, userID); err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return nil
}

func (repo *NotificationRepository) DeleteNotification(ctx context.Context, id, userID string) error {
	query := repo.db.Rebind(`DELETE FROM notifications WHERE id = ? AND user_id = ?`)
	res, err := repo.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *NotificationRepository) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`)
	if err := repo.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}
