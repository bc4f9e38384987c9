package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/procflow/engine/internal/store"
	"github.com/procflow/engine/pkg/api"
)

const defaultRunLimit = 20

func (s *Server) listRuns(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
			Error: "run persistence not configured",
		})
		return
	}

	limit := int64(defaultRunLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	ids, err := s.reports.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, api.RunListResponse{Runs: ids})
}

func (s *Server) getRun(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
			Error: "run persistence not configured",
		})
		return
	}

	runID := c.Param("runID")
	report, err := s.reports.GetReport(c.Request.Context(), runID)
	if errors.Is(err, store.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, api.RunResponse{Report: report})
}
