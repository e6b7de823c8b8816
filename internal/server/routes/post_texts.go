package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/guwenlab/insight/internal/server/middleware"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

// CreateTextHandler stores a new classical text for analysis.
func CreateTextHandler(c echo.Context) error {
	type createTextBody struct {
		Title   string `json:"title" validate:"required"`
		Content string `json:"content" validate:"required"`
	}

	type createTextResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
	}

	data := new(createTextBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createTextResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createTextResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	doc, err := app.Storage.CreateDocument(ctx, data.Title, data.Content)
	if err != nil {
		logger.Error("Failed to create document", "err", err)
		return c.JSON(http.StatusInternalServerError, createTextResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, createTextResponse{
		Message:  "Text created",
		Document: &doc,
	})
}
