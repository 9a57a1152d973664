package library

import (
	"net/http"
	"strconv"

	"github.com/bookwormapp/bookworm/pkg/auth"
	"github.com/bookwormapp/bookworm/pkg/catalog"
	"github.com/bookwormapp/bookworm/pkg/errcodes"
	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	libraryService *Service
	catalogService *catalog.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLibraryQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	opts := ListByStatusOptions{
		UserID: userID,
		Status: params.Status,
		Search: params.Search,
	}

	userBooks, total, err := h.libraryService.ListByStatusWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"user_books": userBooks,
		"total":      total,
	}))
}

// add shelves a book that may not exist in the catalog yet. The catalog row
// is found or created first, then the shelf entry is upserted against it.
func (h *handler) add(c echo.Context) error {
	ctx := c.Request().Context()

	params := AddBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	book := &models.Book{
		Title:       params.Title,
		Author:      params.Author,
		Genre:       params.Genre,
		Rating:      params.Rating,
		Description: params.Description,
	}
	if _, err := h.catalogService.FindOrCreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	userBook := &models.UserBook{
		UserID: userID,
		BookID: book.ID,
		Status: params.Status,
		Rating: params.UserRating,
		Review: params.Review,
	}
	if err := h.libraryService.UpsertStatus(ctx, userBook); err != nil {
		return errors.WithStack(err)
	}
	userBook.Book = book

	return errors.WithStack(c.JSON(http.StatusCreated, userBook))
}

func (h *handler) upsert(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpsertStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	// The book has to exist before it can be shelved.
	book, err := h.catalogService.RetrieveBook(ctx, catalog.RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return errors.WithStack(err)
	}

	userBook := &models.UserBook{
		UserID: userID,
		BookID: book.ID,
		Status: params.Status,
		Rating: params.Rating,
		Review: params.Review,
	}
	if err := h.libraryService.UpsertStatus(ctx, userBook); err != nil {
		return errors.WithStack(err)
	}
	userBook.Book = book

	return errors.WithStack(c.JSON(http.StatusOK, userBook))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("bookId"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	userID, ok := auth.GetUserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("User not found in context")
	}

	if err := h.libraryService.Remove(ctx, userID, bookID); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
