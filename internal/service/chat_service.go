package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// ChatRepository is the storage surface ChatService depends on.
type ChatRepository interface {
	GetOrCreateRoom(ctx context.Context, clientID, freelancerID uuid.UUID, jobID *uuid.UUID) (*models.ChatRoom, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	ListRoomsByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	CreateMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error)
	MarkRoomRead(ctx context.Context, roomID, readerID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteMessage(ctx context.Context, id, senderID uuid.UUID) error
}

// ChatUserRepository resolves peers when opening rooms.
type ChatUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ChatService manages direct messaging between clients and freelancers.
type ChatService struct {
	repo     ChatRepository
	users    ChatUserRepository
	notifier Notifier
}

func NewChatService(repo ChatRepository, users ChatUserRepository, notifier Notifier) *ChatService {
	return &ChatService{repo: repo, users: users, notifier: notifier}
}

// OpenRoom returns the room between the caller and the peer, creating it on
// first contact. The client side of the pair is whichever party has the
// client role.
func (s *ChatService) OpenRoom(ctx context.Context, callerID, peerID uuid.UUID, jobID *uuid.UUID) (*models.ChatRoom, error) {
	if callerID == peerID {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "cannot open a room with yourself")
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	clientID, freelancerID := callerID, peerID
	if caller.Role == models.RoleFreelancer {
		clientID, freelancerID = peerID, callerID
	}

	return s.repo.GetOrCreateRoom(ctx, clientID, freelancerID, jobID)
}

// ListRooms returns the caller's rooms, most recently active first.
func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	return s.repo.ListRoomsByUser(ctx, userID)
}

// Send posts a message into a room the caller belongs to and pushes it to
// the peer.
func (s *ChatService) Send(ctx context.Context, roomID, senderID uuid.UUID, content string) (*models.Message, error) {
	if err := validation.ValidateLength("content", content, 1, 5000); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	room, err := s.room(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}

	message, err := s.repo.CreateMessage(ctx, roomID, senderID, content)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.BroadcastToUser(room.Peer(senderID), "chat.message", message); err != nil {
			logger.Log.WithError(err).Warn("chat service: notify failed")
		}
	}

	return message, nil
}

// History returns a page of room messages, oldest first, and marks the
// incoming ones read.
func (s *ChatService) History(ctx context.Context, roomID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, err := s.room(ctx, roomID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkRoomRead(ctx, roomID, userID); err != nil {
		logger.Log.WithError(err).WithField("room_id", roomID).Warn("chat service: failed to mark room read")
	}

	return messages, nil
}

// CountUnread returns the caller's unread message count across rooms.
func (s *ChatService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// DeleteMessage removes the caller's own message.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	err := s.repo.DeleteMessage(ctx, messageID, userID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, "message not found")
	}
	return err
}

func (s *ChatService) room(ctx context.Context, roomID, userID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "chat room not found")
		}
		return nil, err
	}
	if !room.Participant(userID) {
		return nil, apperror.ErrForbidden
	}
	return room, nil
}
