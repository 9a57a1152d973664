package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        string    `bun:",nullzero" json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash

	// Relations
	UserBooks []*UserBook `bun:"rel:has-many,join:id=user_id" json:"user_books,omitempty"`
}
