package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"facility-locator/internal/models"
)

// RunListResponse represents the list response
type RunListResponse struct {
	Runs   []models.RunRecord `json:"runs"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// HandleListRuns handles GET /api/v1/runs
func (h *Handler) HandleListRuns(c *gin.Context) {
	if h.DB == nil {
		h.handleNotFound(c, "run history is disabled")
		return
	}

	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, 100)
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	runs, total, err := h.DB.Runs().List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleInternalError(c, requestLogger(c), err)
		return
	}

	h.writeJSON(c, http.StatusOK, "runs listed", RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetRun handles GET /api/v1/runs/:id. The id is either the numeric
// history ID or the run UUID.
func (h *Handler) HandleGetRun(c *gin.Context) {
	if h.DB == nil {
		h.handleNotFound(c, "run history is disabled")
		return
	}

	idStr := c.Param("id")
	var (
		run *models.RunRecord
		err error
	)
	if id, perr := strconv.ParseInt(idStr, 10, 64); perr == nil {
		run, err = h.DB.Runs().GetByID(c.Request.Context(), id)
	} else if _, perr := uuid.Parse(idStr); perr == nil {
		run, err = h.DB.Runs().GetByRunID(c.Request.Context(), idStr)
	} else {
		h.writeError(c, http.StatusBadRequest, "Invalid run ID")
		return
	}

	if h.checkNotFound(err) {
		h.handleNotFound(c, "run not found")
		return
	}
	if err != nil {
		h.handleInternalError(c, requestLogger(c), err)
		return
	}

	h.writeJSON(c, http.StatusOK, "run found", run)
}
