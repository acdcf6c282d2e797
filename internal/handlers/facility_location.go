package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"facility-locator/internal/logging"
	"facility-locator/internal/metrics"
	"facility-locator/internal/models"
	"facility-locator/internal/solver"
)

// RunIDHeader carries the history ID of a recorded solve
const RunIDHeader = "X-Run-ID"

// HandleOnlineFacilityLocation handles POST /online_facility_location
func (h *Handler) HandleOnlineFacilityLocation(c *gin.Context) {
	logger := logging.WithLevel(requestLogger(c), c.Query("log_lvl"))
	logger.Info().Msg("received online facility location task")

	var req OnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, logger, err)
		return
	}

	if req.Demand == nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", &MissingFieldError{Entity: "request", Field: "demand"})
		return
	}
	demand, err := req.Demand.ToDemand()
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", err)
		return
	}
	demands, facilities, err := buildInstance(req.Demands, req.Facilities)
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", err)
		return
	}
	logger.Info().
		Int("demands", len(demands)).
		Int("facilities", len(facilities)).
		Msg("initialized classes")

	params, err := req.Parameter.onlineParams(h.Online)
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Solver", err)
		return
	}
	s, err := solver.NewOnlineSolver(demands, facilities, params,
		solver.WithRandomSource(h.Random),
		solver.WithLogger(logger),
	)
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Solver", err)
		return
	}

	start := time.Now()
	err = s.Recalculate()
	if err == nil {
		err = s.Process(demand)
	}
	metrics.RecordSolve(string(models.SolveModeOnline), time.Since(start), err)
	if err != nil {
		h.handleSolveError(c, logger, "Could not run Meyerson algorithm", err)
		return
	}
	metrics.RecordDecision(string(s.LastDecision()))

	snap := s.Snapshot()
	logger.Info().
		Str("decision", string(s.LastDecision())).
		Float64("cost", snap.Data.Costs.Current).
		Float64("delta", snap.Data.Costs.Delta).
		Msg("meyerson solver completed")

	h.recordRun(c, logger, models.SolveModeOnline, snap)
	h.writeJSON(c, http.StatusOK, "/online_facility_location successful.", snap)
}

// HandleOfflineFacilityLocation handles POST /offline_facility_location
func (h *Handler) HandleOfflineFacilityLocation(c *gin.Context) {
	logger := logging.WithLevel(requestLogger(c), c.Query("log_lvl"))
	logger.Info().Msg("received offline facility location task")

	var req OfflineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, logger, err)
		return
	}

	if req.Demands == nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", &MissingFieldError{Entity: "request", Field: "demands"})
		return
	}
	if req.Facilities == nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", &MissingFieldError{Entity: "request", Field: "facilities"})
		return
	}
	demands, facilities, err := buildInstance(req.Demands, req.Facilities)
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Classes", err)
		return
	}
	logger.Info().
		Int("demands", len(demands)).
		Int("facilities", len(facilities)).
		Msg("initialized classes")

	params, err := req.Parameter.offlineParams(h.Offline)
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Solver", err)
		return
	}
	s, err := solver.NewOfflineSolver(demands, facilities, params, solver.WithLogger(logger))
	if err != nil {
		h.handleSolveError(c, logger, "Could not initialize Solver", err)
		return
	}

	start := time.Now()
	err = s.Recalculate()
	if err == nil {
		err = s.Run()
	}
	metrics.RecordSolve(string(models.SolveModeOffline), time.Since(start), err)
	if err != nil {
		h.handleSolveError(c, logger, "Could not run Clustering algorithm", err)
		return
	}
	metrics.RecordRounds(len(s.Rounds()))

	snap := s.Snapshot()
	logger.Info().
		Int("iterations", params.Iterations).
		Float64("cost", snap.Data.Costs.Current).
		Msg("clustering solver completed")

	h.recordRun(c, logger, models.SolveModeOffline, snap)
	h.writeJSON(c, http.StatusOK, "/offline_facility_location successful.", snap)
}

// recordRun stores a finished solve. Failures are logged and do not affect
// the response.
func (h *Handler) recordRun(c *gin.Context, logger zerolog.Logger, mode models.SolveMode, snap models.Snapshot) {
	if h.DB == nil {
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to encode run snapshot")
		return
	}

	run := &models.RunRecord{
		RunID:         uuid.NewString(),
		Mode:          mode,
		FacilityCount: len(snap.Facilities),
		DemandCount:   len(snap.Demands),
		CostCurrent:   snap.Data.Costs.Current,
		CostPrevious:  snap.Data.Costs.Previous,
		CostDelta:     snap.Data.Costs.Delta,
		Coin:          snap.Data.Coin,
		Snapshot:      raw,
	}

	// the client going away should not lose the record
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
	defer cancel()

	created, err := h.DB.Runs().Create(ctx, run)
	if err != nil {
		logger.Warn().Err(err).Str("mode", string(mode)).Msg("failed to record run")
		return
	}
	c.Header(RunIDHeader, created.RunID)
	logger.Debug().Int64("id", created.ID).Str("run_id", created.RunID).Msg("run recorded")
}
