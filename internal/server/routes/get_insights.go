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

// GetInsightsHandler builds the multi-view insight snapshot for a text.
// ?light=true skips the geocoding fan-out.
func GetInsightsHandler(c echo.Context) error {
	type insightsResponse struct {
		Message  string           `json:"message"`
		Insights *common.Insights `json:"insights,omitempty"`
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, insightsResponse{
			Message: "Invalid text id",
		})
	}

	mode := common.InsightModeFull
	if light, _ := strconv.ParseBool(c.QueryParam("light")); light {
		mode = common.InsightModeLight
	}

	app := c.(*middleware.AppContext).App

	insights, err := app.Insight.BuildInsights(c.Request().Context(), id, mode, c.QueryParam("model"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, insightsResponse{
				Message: "Text not found",
			})
		}
		logger.Error("Insight build failed", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, insightsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, insightsResponse{
		Message:  "OK",
		Insights: &insights,
	})
}
