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

// ClassifyTextHandler resolves a text's genre. The response category is
// always concrete; gateway outages degrade to keyword heuristics inside the
// service.
func ClassifyTextHandler(c echo.Context) error {
	type classifyBody struct {
		Model string `json:"model"`
	}

	type classifyResponse struct {
		Message        string                 `json:"message"`
		Classification *common.Classification `json:"classification,omitempty"`
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, classifyResponse{
			Message: "Invalid text id",
		})
	}

	data := new(classifyBody)
	_ = c.Bind(data)

	app := c.(*middleware.AppContext).App

	cls, err := app.Insight.Classify(c.Request().Context(), id, data.Model)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, classifyResponse{
				Message: "Text not found",
			})
		}
		logger.Error("Classification failed", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, classifyResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, classifyResponse{
		Message:        "Classification complete",
		Classification: &cls,
	})
}
