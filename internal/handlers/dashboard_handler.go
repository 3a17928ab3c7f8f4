package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/repository"
)

// DashboardHandler serves one summary per role. Role gating is done by
// middleware.RequireRole on each route.
type DashboardHandler struct {
	userRepo   *repository.UserRepository
	reportRepo *repository.ReportRepository
	log        *zap.Logger
}

func NewDashboardHandler(userRepo *repository.UserRepository, reportRepo *repository.ReportRepository, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		userRepo:   userRepo,
		reportRepo: reportRepo,
		log:        log,
	}
}

func (h *DashboardHandler) Member(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  user.Username,
		"role":      user.Role,
		"penalties": nonNil(user.Penalties),
	})
}

func (h *DashboardHandler) Critic(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":            user.Username,
		"role":                user.Role,
		"reviews":             nonNil(user.Reviews),
		"special_permissions": nonNil(user.SpecialPermissions),
	})
}

func (h *DashboardHandler) Moderator(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}
	reports, err := h.reportRepo.List()
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	pending := 0
	for _, r := range reports {
		if r.Status == models.ReportStatusPending {
			pending++
		}
	}

	id := middleware.Identity(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": id.UserID,
		"role":    id.Role,
		"moderation_stats": gin.H{
			"total_users":      len(users),
			"active_penalties": countPenalties(users),
			"pending_reports":  pending,
		},
	})
}

func (h *DashboardHandler) Administrator(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	id := middleware.Identity(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": id.UserID,
		"role":    id.Role,
		"system_stats": gin.H{
			"total_users":      len(users),
			"active_penalties": countPenalties(users),
		},
	})
}

func countPenalties(users []*models.User) int {
	n := 0
	for _, u := range users {
		n += len(u.Penalties)
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
