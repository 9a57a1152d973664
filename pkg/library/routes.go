package library

import (
	"github.com/bookwormapp/bookworm/pkg/auth"
	"github.com/bookwormapp/bookworm/pkg/catalog"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers library routes on a pre-configured
// group. Every route requires authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, mw *auth.Middleware) {
	libraryService := NewService(db)
	catalogService := catalog.NewService(db)

	h := &handler{
		libraryService: libraryService,
		catalogService: catalogService,
	}

	g.Use(mw.Authenticate)

	g.GET("", h.list)
	g.POST("", h.add)
	g.PUT("/:bookId", h.upsert)
	g.DELETE("/:bookId", h.remove)
}
