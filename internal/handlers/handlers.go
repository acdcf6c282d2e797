package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"facility-locator/internal/database"
	"facility-locator/internal/geometry"
	"facility-locator/internal/solver"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	// DB stores run history; nil disables recording and the runs routes
	DB      database.DataStore
	Online  solver.OnlineParams
	Offline solver.OfflineParams
	// Random is shared by every request when set; nil gives each solver the
	// unseeded system source
	Random  solver.RandomSource
	Version string
}

// Response is the envelope of every JSON reply
type Response struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
	Data any    `json:"data"`
}

// writeJSON writes an enveloped JSON response
func (h *Handler) writeJSON(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Msg: msg, Code: status, Data: data})
}

// writeError writes an envelope without data
func (h *Handler) writeError(c *gin.Context, status int, msg string) {
	h.writeJSON(c, status, msg, nil)
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(c *gin.Context, msg string) {
	h.writeError(c, http.StatusNotFound, msg)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(c *gin.Context, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("internal error")
	_ = c.Error(err)
	h.writeError(c, http.StatusInternalServerError, "An error occurred. Please try again.")
}

// handleSolveError maps err onto 400 or 500. prefix names the stage that
// failed, e.g. "Could not initialize Solver".
func (h *Handler) handleSolveError(c *gin.Context, logger zerolog.Logger, prefix string, err error) {
	if !isClientError(err) {
		h.handleInternalError(c, logger, err)
		return
	}
	logger.Warn().Err(err).Msg(prefix)
	_ = c.Error(err)
	h.writeError(c, http.StatusBadRequest, prefix+": "+err.Error())
}

// isClientError reports whether err was caused by the request content
func isClientError(err error) bool {
	var (
		missing *MissingFieldError
		invalid *solver.InvalidParamError
		verrs   validator.ValidationErrors
	)
	switch {
	case errors.As(err, &missing),
		errors.As(err, &invalid),
		errors.As(err, &verrs),
		errors.Is(err, geometry.ErrUnsupportedMetric),
		errors.Is(err, geometry.ErrDimensionMismatch),
		errors.Is(err, solver.ErrEmptyInput),
		errors.Is(err, solver.ErrDuplicateDemand),
		errors.Is(err, ErrDemandAlreadyServed):
		return true
	}
	return false
}

// handleBindError handles a body that could not be decoded or validated
func (h *Handler) handleBindError(c *gin.Context, logger zerolog.Logger, err error) {
	logger.Warn().Err(err).Msg("invalid request body")
	_ = c.Error(err)
	h.writeError(c, http.StatusBadRequest, "Could not initialize Classes: "+err.Error())
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// requestLogger returns the logger the request middleware attached to the
// context, or the global logger
func requestLogger(c *gin.Context) zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return log.Logger
}
