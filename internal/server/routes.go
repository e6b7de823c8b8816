package server

import (
	"github.com/guwenlab/insight/internal/server/middleware"
	"github.com/guwenlab/insight/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Text routes
	apiRoutes.GET("/texts", routes.GetTextsHandler)
	apiRoutes.POST("/texts", routes.CreateTextHandler)
	apiRoutes.GET("/texts/:id", routes.GetTextHandler)

	// Analysis routes
	apiRoutes.POST("/texts/:id/classify", routes.ClassifyTextHandler)
	apiRoutes.POST("/texts/:id/annotate", routes.AnnotateTextHandler)
	apiRoutes.GET("/texts/:id/insights", routes.GetInsightsHandler)
	apiRoutes.POST("/texts/:id/analysis", routes.RunAnalysisHandler)
}
