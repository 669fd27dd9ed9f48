package ws

import (
	"context"

	"github.com/google/uuid"
)

// NotificationServiceAdapter bridges the notification service into the hub's
// NotificationSaver interface.
type NotificationServiceAdapter struct {
	service interface {
		CreateFromEvent(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
	}
}

func NewNotificationServiceAdapter(service interface {
	CreateFromEvent(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// SaveEvent implements NotificationSaver.
func (a *NotificationServiceAdapter) SaveEvent(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return a.service.CreateFromEvent(ctx, userID, event, data)
}
