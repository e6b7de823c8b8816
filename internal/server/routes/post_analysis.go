package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/guwenlab/insight/internal/queue"
	"github.com/guwenlab/insight/internal/server/middleware"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/store"
)

// RunAnalysisHandler runs the full pipeline for a text. ?async=true enqueues
// the job for the worker instead of running it inline.
func RunAnalysisHandler(c echo.Context) error {
	type analysisBody struct {
		Model string `json:"model"`
	}

	type analysisResponse struct {
		Message  string           `json:"message"`
		Analysis *common.Analysis `json:"analysis,omitempty"`
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, analysisResponse{
			Message: "Invalid text id",
		})
	}

	data := new(analysisBody)
	_ = c.Bind(data)

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if _, err := app.Storage.GetDocument(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, analysisResponse{
				Message: "Text not found",
			})
		}
		logger.Error("Failed to load document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, analysisResponse{
			Message: "Internal server error",
		})
	}

	if async, _ := strconv.ParseBool(c.QueryParam("async")); async {
		if err := queue.PublishAnalysisJob(app.Queue, id, data.Model); err != nil {
			logger.Error("Failed to enqueue analysis job", "id", id, "err", err)
			return c.JSON(http.StatusInternalServerError, analysisResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusAccepted, analysisResponse{
			Message: "Analysis queued",
		})
	}

	analysis, err := app.Insight.RunFullAnalysis(ctx, id, data.Model)
	if err != nil {
		logger.Error("Full analysis failed", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, analysisResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, analysisResponse{
		Message:  "Analysis complete",
		Analysis: &analysis,
	})
}
