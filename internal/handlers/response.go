package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/apierr"
	"github.com/vocaquiz/vocaquiz-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps a service error onto the wire. A start that
// lost to an in-flight attempt is a conflict that carries the existing
// attempt so the client can resume it; everything else goes through the
// status-coded error type.
func RespondServiceError(c *gin.Context, err error) {
	var activeErr *services.ActiveAttemptError
	if errors.As(err, &activeErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": APIError{
				Message: activeErr.Error(),
				Code:    "attempt_in_progress",
			},
			"attempt": activeErr.Attempt,
		})
		return
	}
	apiErr := apierr.From(err)
	RespondError(c, apiErr.Status, apiErr.Code, apiErr)
}
