package catalog

import (
	"net/http"
	"strconv"

	"github.com/bookwormapp/bookworm/pkg/errcodes"
	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	catalogService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBooksOptions{
		Page:   &params.Page,
		Search: params.Search,
		Genre:  params.Genre,
	}

	books, total, err := h.catalogService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"books":       books,
		"total":       total,
		"total_pages": TotalPages(total),
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:       params.Title,
		Author:      params.Author,
		Genre:       params.Genre,
		Rating:      params.Rating,
		Description: params.Description,
	}

	created, err := h.catalogService.FindOrCreateBook(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	return errors.WithStack(c.JSON(status, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.catalogService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	// Full replace of the editable fields. Description, cover_url, and
	// display_order are owned by ingestion and never touched here.
	book.Title = params.Title
	book.Author = params.Author
	book.Genre = NormalizeGenre(params.Genre)
	book.Rating = params.Rating

	opts := UpdateBookOptions{Columns: []string{"title", "author", "genre", "rating"}}
	if err := h.catalogService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.catalogService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
