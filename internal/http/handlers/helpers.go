// README: JSON envelope helpers and error-to-status mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pitstop/internal/modules/assignment"
	"pitstop/internal/modules/booking"
	"pitstop/internal/modules/extension"
	"pitstop/internal/modules/pricing"
	"pitstop/internal/modules/tracking"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Error: msg})
}

// writeServiceError maps module sentinel errors onto HTTP statuses: validation
// to 400, missing entities to 404, illegal transitions and lost races to 409,
// failed authorizations to 402, everything else to 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrValidation),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, extension.ErrBadRequest),
		errors.Is(err, assignment.ErrHandoverRequired),
		errors.Is(err, tracking.ErrBadPosition):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, assignment.ErrNotFound),
		errors.Is(err, extension.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, extension.ErrAuthorization):
		writeError(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, assignment.ErrInvalidState),
		errors.Is(err, assignment.ErrConflict),
		errors.Is(err, assignment.ErrNoJockey),
		errors.Is(err, extension.ErrInvalidState),
		errors.Is(err, extension.ErrConflict),
		errors.Is(err, extension.ErrNotInService):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
