package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Title        string    `bun:",nullzero" json:"title"`
	Author       string    `bun:",nullzero" json:"author"`
	Genre        *string   `json:"genre"`
	Rating       *float64  `json:"rating"`
	Description  *string   `json:"description"`
	CoverURL     *string   `json:"cover_url"`
	DisplayOrder *int      `json:"display_order"`

	// Relations
	UserBooks []*UserBook `bun:"rel:has-many,join:id=book_id" json:"user_books,omitempty"`
}
