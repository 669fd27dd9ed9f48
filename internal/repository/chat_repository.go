package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
)

var (
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrMessageNotFound = errors.New("message not found")
)

type ChatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetOrCreateRoom returns the room between a client and a freelancer,
// creating it on first contact. The (client, freelancer) pair maps to a
// single row.
func (r *ChatRepository) GetOrCreateRoom(ctx context.Context, clientID, freelancerID uuid.UUID, jobID *uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room, `
		INSERT INTO chat_rooms (client_id, freelancer_id, job_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, freelancer_id) DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING *
	`, clientID, freelancerID, jobID)
	if err != nil {
		return nil, fmt.Errorf("chat repository: get or create room %w", err)
	}
	return &room, nil
}

func (r *ChatRepository) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room, `SELECT * FROM chat_rooms WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("chat repository: get room %w", err)
	}
	return &room, nil
}

// ListRoomsByUser returns the user's rooms, most recently active first.
func (r *ChatRepository) ListRoomsByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	err := r.db.SelectContext(ctx, &rooms, `
		SELECT cr.* FROM chat_rooms cr
		WHERE cr.client_id = $1 OR cr.freelancer_id = $1
		ORDER BY (
			SELECT COALESCE(MAX(m.created_at), cr.created_at)
			FROM messages m WHERE m.room_id = cr.id
		) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("chat repository: list rooms %w", err)
	}
	return rooms, nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (room_id, sender_id, content, is_read)
		VALUES ($1, $2, $3, FALSE)
		RETURNING *
	`, roomID, senderID, content)
	if err != nil {
		return nil, fmt.Errorf("chat repository: create message %w", err)
	}
	return &msg, nil
}

func (r *ChatRepository) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("chat repository: get message %w", err)
	}
	return &msg, nil
}

// ListMessages returns a page of room history, oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("chat repository: list messages %w", err)
	}
	return msgs, nil
}

// MarkRoomRead marks every message in the room addressed to the reader as read.
func (r *ChatRepository) MarkRoomRead(ctx context.Context, roomID, readerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE room_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, roomID, readerID)
	if err != nil {
		return fmt.Errorf("chat repository: mark room read %w", err)
	}
	return nil
}

func (r *ChatRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages m
		JOIN chat_rooms cr ON cr.id = m.room_id
		WHERE (cr.client_id = $1 OR cr.freelancer_id = $1)
		  AND m.sender_id <> $1 AND m.is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("chat repository: count unread %w", err)
	}
	return count, nil
}

func (r *ChatRepository) DeleteMessage(ctx context.Context, id, senderID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1 AND sender_id = $2`, id, senderID)
	if err != nil {
		return fmt.Errorf("chat repository: delete message %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat repository: delete message %w", err)
	}
	if rows == 0 {
		return ErrMessageNotFound
	}
	return nil
}
