package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups jobs in the catalog.
type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Skill is a tag freelancers and jobs reference.
type Skill struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	CategoryID *uuid.UUID `db:"category_id" json:"category_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
