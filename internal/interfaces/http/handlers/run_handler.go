package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// RunTrigger starts a recommendation run.
type RunTrigger interface {
	Trigger(ctx context.Context) (*lead.Run, error)
}

// RunHandler serves pipeline run management.
type RunHandler struct {
	trigger RunTrigger
	runs    lead.RunRepository
	logger  logging.Logger
}

// NewRunHandler builds the handler.  trigger may be nil on read-only API
// nodes; POST /runs then returns 501.
func NewRunHandler(trigger RunTrigger, runs lead.RunRepository, log logging.Logger) *RunHandler {
	return &RunHandler{trigger: trigger, runs: runs, logger: log.Named("run_handler")}
}

// Trigger serves POST /runs.  The run executes synchronously; a conflicting
// active run yields 409.
func (h *RunHandler) Trigger(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "run triggering is not enabled on this node"})
		return
	}

	run, err := h.trigger.Trigger(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("run triggered via API",
		logging.String("run_id", string(run.ID)),
		logging.Int("leads", run.LeadCount))
	respond(c, http.StatusCreated, run)
}

// Get serves GET /runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, run)
}

// List serves GET /runs?limit=N, most recent first.
func (h *RunHandler) List(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, runs)
}
