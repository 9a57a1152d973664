package library

// Query params for library endpoints. Status is deliberately not validated
// against the enum: unknown values are coerced to already_read.
type ListLibraryQuery struct {
	Status string  `query:"status" json:"status,omitempty" default:"already_read"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
}

// AddBookPayload shelves a book, creating the catalog row first if it
// doesn't exist yet.
type AddBookPayload struct {
	Title       string   `json:"title" validate:"required,min=1,max=500"`
	Author      string   `json:"author" validate:"required,min=1,max=500"`
	Genre       *string  `json:"genre,omitempty" validate:"omitempty,max=500"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`

	Status     string   `json:"status"`
	UserRating *float64 `json:"user_rating,omitempty" validate:"omitempty,min=0,max=5"`
	Review     *string  `json:"review,omitempty" validate:"omitempty,max=10000"`
}

type UpsertStatusPayload struct {
	Status string   `json:"status"`
	Rating *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Review *string  `json:"review,omitempty" validate:"omitempty,max=10000"`
}
