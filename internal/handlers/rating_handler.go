package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/repository"
)

type RatingHandler struct {
	movieRepo  *repository.MovieRepository
	ratingRepo *repository.RatingRepository
	log        *zap.Logger
}

func NewRatingHandler(movieRepo *repository.MovieRepository, ratingRepo *repository.RatingRepository, log *zap.Logger) *RatingHandler {
	return &RatingHandler{
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		log:        log,
	}
}

func (h *RatingHandler) RateMovie(c *gin.Context) {
	movieID := c.Param("movie_id")

	var req models.RateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if err := h.ratingRepo.Set(middleware.Identity(c).UserID, movieID, *req.Rating); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Movie rated successfully",
		"movie_id": movieID,
		"rating":   *req.Rating,
	})
}

func (h *RatingHandler) RemoveRating(c *gin.Context) {
	movieID := c.Param("movie_id")
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if err := h.ratingRepo.Delete(middleware.Identity(c).UserID, movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating removed successfully", "movie_id": movieID})
}

// GetUserRatings lists the caller's ratings with movie details, ordered by
// movie id. Ratings for movies no longer in the catalog are skipped.
func (h *RatingHandler) GetUserRatings(c *gin.Context) {
	ratings, err := h.ratingRepo.ForUser(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rated := []models.UserRating{}
	for _, id := range ids {
		movie, err := h.movieRepo.GetByID(id)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			errorFrom(c, h.log, err)
			return
		}
		rated = append(rated, models.UserRating{Movie: movie, UserRating: ratings[id]})
	}

	c.JSON(http.StatusOK, gin.H{"ratings": rated})
}

func (h *RatingHandler) GetAverageRating(c *gin.Context) {
	movieID := c.Param("movie_id")
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	avg, total, err := h.ratingRepo.Average(movieID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.AverageRatingResponse{
		MovieID:       movieID,
		AverageRating: avg,
		TotalRatings:  total,
	})
}

// GetUserRating returns the caller's rating for one movie, null when unrated.
func (h *RatingHandler) GetUserRating(c *gin.Context) {
	movieID := c.Param("movie_id")
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	var userRating *float64
	rating, err := h.ratingRepo.Get(middleware.Identity(c).UserID, movieID)
	switch {
	case err == nil:
		userRating = &rating
	case !errors.Is(err, apperrors.ErrNotFound):
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movie_id": movieID, "user_rating": userRating})
}
