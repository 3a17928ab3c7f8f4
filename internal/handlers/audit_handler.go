package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/models"
)

// AuditReader reads the moderation audit trail.
type AuditReader interface {
	GetLogsByReport(ctx context.Context, reportID string, limit int) ([]models.ModerationLog, error)
	GetLogsByTarget(ctx context.Context, userID string, limit int) ([]models.ModerationLog, error)
}

type AuditHandler struct {
	logs AuditReader
	log  *zap.Logger
}

func NewAuditHandler(logs AuditReader, log *zap.Logger) *AuditHandler {
	return &AuditHandler{logs: logs, log: log}
}

// ReportHistory lists the audit entries of one report, newest first.
func (h *AuditHandler) ReportHistory(c *gin.Context) {
	h.respond(c, h.logs.GetLogsByReport, c.Param("id"))
}

// UserHistory lists the moderation actions taken against a user.
func (h *AuditHandler) UserHistory(c *gin.Context) {
	h.respond(c, h.logs.GetLogsByTarget, c.Param("user_id"))
}

func (h *AuditHandler) respond(c *gin.Context, fetch func(context.Context, string, int) ([]models.ModerationLog, error), key string) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			ErrorResponse(c, http.StatusUnprocessableEntity, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := fetch(c.Request.Context(), key, limit)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
