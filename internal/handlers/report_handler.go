package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/moderation"
	"github.com/cinereview/backend/internal/repository"
)

type ReportHandler struct {
	engine *moderation.Engine
	movies *repository.MovieRepository
	log    *zap.Logger
}

func NewReportHandler(engine *moderation.Engine, movies *repository.MovieRepository, log *zap.Logger) *ReportHandler {
	return &ReportHandler{
		engine: engine,
		movies: movies,
		log:    log,
	}
}

// ListReports returns reports, optionally narrowed by ?status, capped by ?limit.
func (h *ReportHandler) ListReports(c *gin.Context) {
	filter := models.ReportFilter{Limit: moderation.DefaultListLimit}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > moderation.MaxListLimit {
			ErrorResponse(c, http.StatusUnprocessableEntity, "limit must be an integer between 1 and 100")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ReportStatus(raw)
		filter.Status = &status
	}

	reports, err := h.engine.ListReports(c.Request.Context(), filter)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// GetReport returns a single report
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.engine.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// CreateReport files a report about a movie on behalf of the caller.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	exists, err := h.movies.Exists(req.MovieID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}
	if !exists {
		ErrorResponse(c, http.StatusNotFound, "Movie not found")
		return
	}

	report, err := h.engine.CreateReport(c.Request.Context(), middleware.Identity(c).UserID, req.MovieID, req.Reason, req.Description)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// DismissReport closes a pending report. Notes come from ?notes or the JSON body.
func (h *ReportHandler) DismissReport(c *gin.Context) {
	reportID := c.Param("id")

	var req models.DismissReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Notes == nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	if _, err := h.engine.DismissReport(c.Request.Context(), reportID, middleware.Identity(c).UserID, req.Notes); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.DismissReportResponse{
		Message:  "Report dismissed successfully",
		ReportID: reportID,
	})
}

// ApplyPenalty penalises a user and closes the report named in the path.
func (h *ReportHandler) ApplyPenalty(c *gin.Context) {
	reportID := c.Param("id")

	var req models.ApplyPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.ReportID != nil && *req.ReportID != "" && *req.ReportID != reportID {
		ErrorResponse(c, http.StatusUnprocessableEntity, "report_id in body does not match path")
		return
	}

	penalty, err := h.engine.ApplyPenalty(c.Request.Context(), reportID, penaltyInput(req), middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.ApplyPenaltyResponse{
		Message:  "Penalty applied successfully",
		ReportID: reportID,
		Penalty:  penalty,
	})
}

// IssuePenalty penalises a user without a report.
func (h *ReportHandler) IssuePenalty(c *gin.Context) {
	var req models.ApplyPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	penalty, err := h.engine.IssuePenalty(c.Request.Context(), penaltyInput(req), middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, penalty)
}

// GetUserPenalties lists a user's active penalties for the user themself or staff.
func (h *ReportHandler) GetUserPenalties(c *gin.Context) {
	userID := c.Param("user_id")

	if err := auth.CanViewPenalties(middleware.Identity(c), userID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	penalties, err := h.engine.GetUserPenalties(c.Request.Context(), userID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.UserPenaltiesResponse{
		UserID:    userID,
		Penalties: penalties,
	})
}

func penaltyInput(req models.ApplyPenaltyRequest) moderation.PenaltyInput {
	return moderation.PenaltyInput{
		UserID:       req.UserID,
		Reason:       req.Reason,
		Severity:     req.Severity,
		DurationDays: req.DurationDays,
	}
}
