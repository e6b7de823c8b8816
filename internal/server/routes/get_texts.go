package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/guwenlab/insight/internal/server/middleware"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/store"
)

// GetTextsHandler lists all stored texts.
func GetTextsHandler(c echo.Context) error {
	type getTextsResponse struct {
		Message   string            `json:"message"`
		Documents []common.Document `json:"documents,omitempty"`
	}

	app := c.(*middleware.AppContext).App

	docs, err := app.Storage.ListDocuments(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, getTextsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getTextsResponse{
		Message:   "OK",
		Documents: docs,
	})
}

// GetTextHandler returns one text by id.
func GetTextHandler(c echo.Context) error {
	type getTextResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, getTextResponse{
			Message: "Invalid text id",
		})
	}

	app := c.(*middleware.AppContext).App

	doc, err := app.Storage.GetDocument(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getTextResponse{
				Message: "Text not found",
			})
		}
		logger.Error("Failed to get document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getTextResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getTextResponse{
		Message:  "OK",
		Document: &doc,
	})
}
