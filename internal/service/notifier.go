package service

import "github.com/google/uuid"

// Notifier pushes events to connected clients. The WebSocket hub satisfies
// it; services tolerate a nil notifier.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}
