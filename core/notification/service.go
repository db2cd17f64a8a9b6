package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, notif Notification) (Notification, error)
		QueryNotificationsByUser(ctx context.Context, userID string) ([]Notification, error)
		// MarkNotificationRead flips the read flag; scoped to the owner.
		MarkNotificationRead(ctx context.Context, id, userID string) (Notification, error)
		MarkAllNotificationsRead(ctx context.Context, userID string) error
		DeleteNotification(ctx context.Context, id, userID string) error
		CountUnreadByUser(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Notify(ctx context.Context, nn NewNotification) (Notification, error) {
	kind := nn.Kind
	if kind == "" {
		kind = KindGeneral
	}
	notif := Notification{
		UserID:    nn.UserID,
		Kind:      kind,
		Title:     nn.Title,
		Message:   nn.Message,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateNotification(ctx, notif)
}

func (svc *Service) QueryByUser(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryNotificationsByUser(ctx, userID)
}

func (svc *Service) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	return svc.repo.MarkNotificationRead(ctx, id, userID)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkAllNotificationsRead(ctx, userID)
}

func (svc *Service) Delete(ctx context.Context, id, userID string) error {
	return svc.repo.DeleteNotification(ctx, id, userID)
}

func (svc *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnreadByUser(ctx, userID)
}
