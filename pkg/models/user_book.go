package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Shelf statuses a user can assign to a book. Unknown statuses are coerced
// to StatusAlreadyRead rather than rejected.
const (
	StatusAlreadyRead = "already_read"
	StatusRecommend   = "recommend"
	StatusSave        = "save"
)

// CoerceStatus maps an arbitrary status string onto one of the supported
// shelf statuses, falling back to StatusAlreadyRead.
func CoerceStatus(status string) string {
	switch status {
	case StatusAlreadyRead, StatusRecommend, StatusSave:
		return status
	default:
		return StatusAlreadyRead
	}
}

type UserBook struct {
	bun.BaseModel `bun:"table:user_books,alias:ub"`

	ID     int      `bun:",pk,nullzero" json:"id"`
	UserID int      `bun:",nullzero" json:"user_id"`
	User   *User    `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	BookID int      `bun:",nullzero" json:"book_id"`
	Book   *Book    `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Status string   `bun:",nullzero" json:"status"`
	Rating *float64 `json:"rating"`
	Review *string  `json:"review"`
	// CreatedAt doubles as the last-modified time. Re-shelving a book
	// refreshes it so "recently shelved" ordering reflects the latest action.
	CreatedAt time.Time `json:"created_at"`
}
