package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// LeadCache is the read-through cache in front of per-account lead reads.
type LeadCache interface {
	GetAccountLeads(ctx context.Context, accountID common.AccountID) ([]*lead.Lead, bool, error)
	SetAccountLeads(ctx context.Context, accountID common.AccountID, leads []*lead.Lead) error
}

// LeadHandler serves lead and account views.
type LeadHandler struct {
	repo   lead.Repository
	cache  LeadCache
	logger logging.Logger
}

// NewLeadHandler builds the handler.  cache may be nil; reads then always
// hit the repository.
func NewLeadHandler(repo lead.Repository, cache LeadCache, log logging.Logger) *LeadHandler {
	return &LeadHandler{repo: repo, cache: cache, logger: log.Named("lead_handler")}
}

// List serves GET /leads with optional account_id, type, priority, and
// run_id filters.
func (h *LeadHandler) List(c *gin.Context) {
	filter := lead.ListFilter{
		AccountID: common.AccountID(c.Query("account_id")),
		RunID:     common.ID(c.Query("run_id")),
	}
	if v := c.Query("type"); v != "" {
		t := leadtypes.Type(v)
		if !t.Valid() {
			respondError(c, errors.NewValidation("unknown lead type: "+v))
			return
		}
		filter.Type = t
	}
	if v := c.Query("priority"); v != "" {
		p := leadtypes.Priority(v)
		if !p.Valid() {
			respondError(c, errors.NewValidation("unknown priority: "+v))
			return
		}
		filter.Priority = p
	}

	page := parsePagination(c)
	leads, total, err := h.repo.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	page.Total = total
	respondPage(c, leads, page)
}

// Get serves GET /leads/:id.
func (h *LeadHandler) Get(c *gin.Context) {
	l, err := h.repo.GetByID(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, l)
}

// AccountLeads serves GET /accounts/:id/leads, read-through cached.
func (h *LeadHandler) AccountLeads(c *gin.Context) {
	accountID := common.AccountID(c.Param("id"))
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, ok, err := h.cache.GetAccountLeads(ctx, accountID); err == nil && ok {
			respond(c, http.StatusOK, cached)
			return
		} else if err != nil {
			// A degraded cache must not take the endpoint down.
			h.logger.Warn("lead cache read failed", logging.Err(err),
				logging.String("account_id", string(accountID)))
		}
	}

	leads, err := h.repo.ListByAccount(ctx, accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetAccountLeads(ctx, accountID, leads); err != nil {
			h.logger.Warn("lead cache write failed", logging.Err(err),
				logging.String("account_id", string(accountID)))
		}
	}
	respond(c, http.StatusOK, leads)
}

// AccountInsights serves GET /accounts/:id/insights.
func (h *LeadHandler) AccountInsights(c *gin.Context) {
	insights, err := h.repo.InsightsByAccount(c.Request.Context(), common.AccountID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, insights)
}
