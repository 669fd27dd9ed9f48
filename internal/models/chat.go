package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is a conversation between a client and a freelancer, optionally
// tied to a job.
type ChatRoom struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	JobID        *uuid.UUID `db:"job_id" json:"job_id,omitempty"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Participant reports whether userID belongs to the room.
func (r *ChatRoom) Participant(userID uuid.UUID) bool {
	return userID == r.ClientID || userID == r.FreelancerID
}

// Peer returns the other participant of the room.
func (r *ChatRoom) Peer(userID uuid.UUID) uuid.UUID {
	if userID == r.ClientID {
		return r.FreelancerID
	}
	return r.ClientID
}

// Message is a chat message inside a room.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RoomID    uuid.UUID `db:"room_id" json:"room_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
