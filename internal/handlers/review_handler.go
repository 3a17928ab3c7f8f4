package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/moderator"
	"github.com/cinereview/backend/internal/repository"
)

type ReviewHandler struct {
	movieRepo  *repository.MovieRepository
	reviewRepo *repository.ReviewRepository
	ratingRepo *repository.RatingRepository
	userRepo   *repository.UserRepository
	screener   *moderator.Screener
	log        *zap.Logger
}

// NewReviewHandler wires the review routes. screener may be nil, in which
// case new reviews are not screened.
func NewReviewHandler(
	movieRepo *repository.MovieRepository,
	reviewRepo *repository.ReviewRepository,
	ratingRepo *repository.RatingRepository,
	userRepo *repository.UserRepository,
	screener *moderator.Screener,
	log *zap.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		movieRepo:  movieRepo,
		reviewRepo: reviewRepo,
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
		screener:   screener,
		log:        log,
	}
}

// GetReviews returns a movie's reviews narrowed by the query filters.
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	movieID := c.Param("movie_id")

	var filter models.ReviewFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}
	if filter.Skip < 0 || filter.Limit < 0 {
		ErrorResponse(c, http.StatusUnprocessableEntity, "skip and limit must not be negative")
		return
	}

	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	reviews, err := h.reviewRepo.List(movieID, filter)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// AddReview appends the caller's review and, when rated, records the rating.
func (h *ReviewHandler) AddReview(c *gin.Context) {
	movieID := c.Param("movie_id")

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}
	user, err := h.userRepo.GetByID(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if req.Rating != nil {
		if err := h.ratingRepo.Set(user.UserID, movieID, *req.Rating); err != nil {
			errorFrom(c, h.log, err)
			return
		}
	}

	zero := 0
	review := models.Review{
		Date:           time.Now().UTC().Format(models.ReviewDateLayout),
		User:           user.Username,
		UsefulnessVote: &zero,
		TotalVotes:     &zero,
		Rating:         req.Rating,
		Title:          req.ReviewTitle,
		Text:           req.ReviewText,
	}
	if err := h.reviewRepo.Append(movieID, review); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if h.screener != nil {
		h.screener.Submit(moderator.Submission{
			MovieID:  movieID,
			UserID:   user.UserID,
			Username: user.Username,
			Title:    review.Title,
			Text:     review.Text,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Review added successfully", "review": review})
}
