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

// AnnotateTextHandler runs one extraction over a text and replaces its
// entities, relations and sections.
func AnnotateTextHandler(c echo.Context) error {
	type annotateBody struct {
		Model string `json:"model"`
	}

	type annotateResponse struct {
		Message    string             `json:"message"`
		Annotation *common.Annotation `json:"annotation,omitempty"`
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, annotateResponse{
			Message: "Invalid text id",
		})
	}

	data := new(annotateBody)
	_ = c.Bind(data)

	app := c.(*middleware.AppContext).App

	ann, err := app.Insight.Annotate(c.Request().Context(), id, data.Model)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, annotateResponse{
				Message: "Text not found",
			})
		}
		logger.Error("Annotation failed", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, annotateResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, annotateResponse{
		Message:    ann.Message,
		Annotation: &ann,
	})
}
