package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	procflow "github.com/procflow/engine"
	"github.com/procflow/engine/internal/event"
	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/flowsheet"
	"github.com/procflow/engine/pkg/log"
)

func (s *Server) handleHealth(c *gin.Context) {
	// Liveness only; the simulation backend is probed lazily on the
	// first run that reaches it
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Service: procflow.Name,
		Version: procflow.Version,
	})
}

func (s *Server) handleKinds(c *gin.Context) {
	kinds := api.Kinds()
	infos := make([]api.KindInfo, 0, len(kinds))
	for _, kind := range kinds {
		params, _ := api.ParamsFor(kind)
		infos = append(infos, api.KindInfo{
			Kind:   kind,
			Params: params,
		})
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleRun(c *gin.Context) {
	var req api.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if len(req.Equipment) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: "no equipment declared",
		})
		return
	}

	b := flowsheet.NewBuilder(s.adapter)
	for _, eq := range req.Equipment {
		b.Add(eq.Kind, eq.Name, eq.Config, eq.Upstream...)
	}
	s.executeRun(c, b)
}

func (s *Server) handleScript(c *gin.Context) {
	var req api.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	env, err := s.scripts.Get(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	b := flowsheet.NewBuilder(s.adapter)
	if err := env.Declare(req.Source, b); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	s.executeRun(c, b)
}

// executeRun runs a built declaration while holding the run mutex. The
// backend keeps one global equipment registry, so concurrent runs would
// corrupt each other.
func (s *Server) executeRun(c *gin.Context, b *flowsheet.Builder) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.events.Publish(event.Started())
	report, err := b.Run(c.Request.Context())
	if err != nil {
		s.events.Publish(event.Failed(report, err))

		var execErr *flowsheet.EngineExecutionError
		if errors.As(err, &execErr) {
			s.saveReport(c, report)
			c.JSON(http.StatusBadGateway, api.RunResponse{
				Report: report,
				Error:  err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	s.saveReport(c, report)
	s.events.Publish(event.Completed(report))
	c.JSON(http.StatusOK, api.RunResponse{Report: report})
}

func (s *Server) saveReport(c *gin.Context, report *api.RunReport) {
	if s.reports == nil || report == nil {
		return
	}
	if err := s.reports.SaveReport(c.Request.Context(), report); err != nil {
		slog.Error("Failed to persist run report",
			log.RunID(report.RunID),
			log.Error(err))
	}
}
