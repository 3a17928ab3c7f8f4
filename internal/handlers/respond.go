package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/apperrors"
)

// ErrorResponse sends a standardized error response and logs at caller if needed
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// errorFrom maps err to its HTTP status. Storage and unexpected failures are
// logged and answered with a generic message.
func errorFrom(c *gin.Context, log *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		apperrors.LogWithError(c.Request.Context(), log, "request failed", err,
			zap.String("path", c.FullPath()),
		)
		ErrorResponse(c, status, "Internal server error")
		return
	}
	ErrorResponse(c, status, apperrors.Message(err))
}

// bindError answers a request whose body or query failed to bind.
func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
}
