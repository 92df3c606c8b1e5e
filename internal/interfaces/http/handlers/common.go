// Package handlers implements the HTTP API: lead listings, run management,
// account views, and health probes.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/interfaces/http/middleware"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// parsePagination reads page/page_size query parameters with bounds.
func parsePagination(c *gin.Context) common.Pagination {
	page := 1
	pageSize := 50

	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 500 {
			pageSize = ps
		}
	}
	return common.Pagination{Page: page, PageSize: pageSize}
}

// respond writes a success envelope.
func respond(c *gin.Context, status int, data interface{}) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// respondPage writes a success envelope with pagination metadata.
func respondPage(c *gin.Context, data interface{}, page common.Pagination) {
	resp := common.NewSuccessResponse(data)
	resp.Pagination = &page
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(http.StatusOK, resp)
}

// respondError maps an application error onto its HTTP status.  Internal
// details are masked; the error code survives for the client.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}

	resp := common.NewErrorResponse(code.String(), message)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}
