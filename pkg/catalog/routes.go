package catalog

import (
	"github.com/bookwormapp/bookworm/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers catalog routes on a pre-configured group.
// Browsing is public; mutations require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, mw *auth.Middleware) {
	catalogService := NewService(db)

	h := &handler{
		catalogService: catalogService,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)

	g.POST("", h.create, mw.Authenticate)
	g.PATCH("/:id", h.update, mw.Authenticate)
	g.DELETE("/:id", h.delete, mw.Authenticate)
}
