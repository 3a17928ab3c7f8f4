package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/metrics"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/websocket"
)

// Routes collects everything the HTTP surface is built from. Limiter, Metrics,
// Feed and Audit are optional.
type Routes struct {
	Auth      *AuthHandler
	Reports   *ReportHandler
	Dashboard *DashboardHandler
	Movies    *MovieHandler
	Reviews   *ReviewHandler
	Ratings   *RatingHandler
	Feed      *websocket.Handler
	Audit     *AuditHandler

	JWT            *auth.JWTService
	Limiter        *middleware.RateLimiter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(rt Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(rt.Log))
	if rt.Metrics != nil {
		router.Use(rt.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))
	}
	router.Use(middleware.CORSMiddleware(rt.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limit := func(action string) gin.HandlerFunc {
		if rt.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimitMiddleware(rt.Limiter, action)
	}
	authed := middleware.AuthMiddleware(rt.JWT)
	moderatorOnly := middleware.RequireRole(models.RoleModerator)

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", limit("register"), rt.Auth.Register)
		authRoutes.POST("/login", limit("login"), rt.Auth.Login)
		authRoutes.POST("/logout", rt.Auth.Logout)
		authRoutes.GET("/me", authed, rt.Auth.GetMe)
	}

	movies := router.Group("/movies")
	{
		movies.GET("", rt.Movies.ListMovies)
		movies.GET("/user/watch-later", authed, rt.Movies.GetWatchLater)
		movies.GET("/:id", rt.Movies.GetMovie)
		movies.POST("/:id/watch-later", authed, rt.Movies.AddWatchLater)
		movies.DELETE("/:id/watch-later", authed, rt.Movies.RemoveWatchLater)
	}

	reviews := router.Group("/reviews")
	{
		reviews.GET("/:movie_id", rt.Reviews.GetReviews)
		reviews.POST("/:movie_id", authed, limit("review"), rt.Reviews.AddReview)
	}

	ratings := router.Group("/ratings")
	{
		ratings.GET("/user", authed, rt.Ratings.GetUserRatings)
		ratings.POST("/:movie_id", authed, rt.Ratings.RateMovie)
		ratings.DELETE("/:movie_id", authed, rt.Ratings.RemoveRating)
		ratings.GET("/:movie_id/average", rt.Ratings.GetAverageRating)
		ratings.GET("/:movie_id/user", authed, rt.Ratings.GetUserRating)
	}

	dashboard := router.Group("/dashboard", authed)
	{
		dashboard.GET("/member", middleware.RequireRole(models.RoleMember), rt.Dashboard.Member)
		dashboard.GET("/critic", middleware.RequireRole(models.RoleCritic), rt.Dashboard.Critic)
		dashboard.GET("/moderator", moderatorOnly, rt.Dashboard.Moderator)
		dashboard.GET("/administrator", middleware.RequireRole(models.RoleAdministrator), rt.Dashboard.Administrator)
	}

	// Moderation routes
	reports := router.Group("/reports", authed)
	{
		reports.POST("", limit("report"), rt.Reports.CreateReport)
		reports.GET("", moderatorOnly, rt.Reports.ListReports)
		reports.GET("/user/:user_id/penalties", rt.Reports.GetUserPenalties)
		reports.GET("/:id", moderatorOnly, rt.Reports.GetReport)
		reports.POST("/:id/dismiss", moderatorOnly, rt.Reports.DismissReport)
		reports.POST("/:id/penalty", moderatorOnly, rt.Reports.ApplyPenalty)
	}
	router.POST("/penalties", authed, moderatorOnly, rt.Reports.IssuePenalty)

	if rt.Audit != nil {
		reports.GET("/:id/audit", moderatorOnly, rt.Audit.ReportHistory)
		reports.GET("/user/:user_id/audit", moderatorOnly, rt.Audit.UserHistory)
	}

	if rt.Feed != nil {
		router.GET("/ws/moderation", rt.Feed.HandleModerationFeed)
		router.GET("/ws/moderators", authed, moderatorOnly, rt.Feed.GetConnectedModerators)
	}

	return router
}
