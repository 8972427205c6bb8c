package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
)

var errNoRecipe = errors.New("no recipe generated yet")

// statusFor maps generator errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, errNoRecipe):
		return http.StatusNotFound
	case errors.Is(err, service.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		// malformed replies and provider failures alike
		return http.StatusBadGateway
	}
}

// messageFor is the user-facing text for err. Invoker errors and the decode
// detail wrapped into malformed replies stay in the log only.
func messageFor(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrMalformedResponse):
		return service.ErrMalformedResponse.Error()
	case errors.Is(err, errNoRecipe),
		errors.Is(err, service.ErrModelUnavailable):
		return err.Error()
	default:
		return "the model request failed, please try again"
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Warn("recipe request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": messageFor(err)})
}
