package catalog

// Query params for catalog endpoints.
type ListBooksQuery struct {
	Page   int     `query:"page" json:"page,omitempty" default:"1"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	Genre  *string `query:"genre" json:"genre,omitempty" validate:"omitempty,max=200"`
}

// Payloads for create/update endpoints.
type CreateBookPayload struct {
	Title       string   `json:"title" validate:"required,min=1,max=500"`
	Author      string   `json:"author" validate:"required,min=1,max=500"`
	Genre       *string  `json:"genre,omitempty" validate:"omitempty,max=500"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
}

type UpdateBookPayload struct {
	Title  string   `json:"title" validate:"required,min=1,max=500"`
	Author string   `json:"author" validate:"required,min=1,max=500"`
	Genre  *string  `json:"genre,omitempty" validate:"omitempty,max=500"`
	Rating *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
}
