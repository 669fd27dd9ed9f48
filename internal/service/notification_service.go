package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
)

// NotificationRepository is the storage surface NotificationService depends
// on.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotificationService stores and serves user notifications. Live delivery
// happens over the WebSocket hub; this service is the durable side.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateFromEvent persists a hub event as a notification row. Satisfies the
// hub's saver adapter.
func (s *NotificationService) CreateFromEvent(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	notification := &models.Notification{
		UserID: userID,
		Type:   eventToType(event),
		Title:  eventToTitle(event),
		Body:   fmt.Sprintf("%v", data),
	}
	return s.repo.Create(ctx, notification)
}

// Notify writes a typed notification directly.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, notifType, title, body string, link *string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Link:   link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkRead flags one notification read, owner only.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "notification not found")
		}
		return err
	}
	if notification.UserID != userID {
		return apperror.ErrForbidden
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

// MarkAllRead flags every unread notification of the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread returns the badge counter.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Delete removes a notification, owner only.
func (s *NotificationService) Delete(ctx context.Context, notificationID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "notification not found")
		}
		return err
	}
	if notification.UserID != userID {
		return apperror.ErrForbidden
	}
	return s.repo.Delete(ctx, notificationID)
}

// eventToType maps hub event names onto notification types.
func eventToType(event string) string {
	switch event {
	case "proposal.received", "proposal.accepted", "proposal.rejected":
		return models.NotificationTypeProposalStatus
	case "milestone.created", "milestone.completed", "milestone.deliverable":
		return models.NotificationTypeMilestoneUpdate
	case "contract.funded", "contract.completed", "contract.cancelled":
		return models.NotificationTypeContractCompleted
	case "wallet.credited", "wallet.refunded":
		return models.NotificationTypeWalletCredit
	case "chat.message":
		return models.NotificationTypeChatMessage
	default:
		return event
	}
}

// eventToTitle renders a short human title for an event.
func eventToTitle(event string) string {
	switch event {
	case "proposal.received":
		return "New proposal received"
	case "proposal.accepted":
		return "Your proposal was accepted"
	case "proposal.rejected":
		return "Your proposal was declined"
	case "milestone.created":
		return "New milestone added"
	case "milestone.completed":
		return "Milestone completed"
	case "milestone.deliverable":
		return "New deliverable uploaded"
	case "contract.funded":
		return "Contract funded"
	case "contract.completed":
		return "Contract completed"
	case "contract.cancelled":
		return "Contract cancelled"
	case "wallet.credited":
		return "Wallet credited"
	case "wallet.refunded":
		return "Deposit refunded"
	case "chat.message":
		return "New message"
	default:
		return event
	}
}
