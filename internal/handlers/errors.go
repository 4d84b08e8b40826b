package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/logger"
	"insight-flow/backend/internal/services"
)

// errorResponse is the envelope for every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict, services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err. Service errors keep their message; anything
// else is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if errors.As(err, &se) && se.Kind != services.KindInternal {
		c.AbortWithStatusJSON(statusFor(se.Kind), errorResponse{Error: se.Kind.String(), Message: se.Message})
		return
	}

	_ = c.Error(err)
	log := logger.Get()
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: services.KindInvalidArgument.String(), Message: message})
}

func unprocessable(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: "unprocessable_entity", Message: message})
}
