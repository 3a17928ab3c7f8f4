package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/repository"
)

type MovieHandler struct {
	movieRepo *repository.MovieRepository
	userRepo  *repository.UserRepository
	log       *zap.Logger
}

func NewMovieHandler(movieRepo *repository.MovieRepository, userRepo *repository.UserRepository, log *zap.Logger) *MovieHandler {
	return &MovieHandler{
		movieRepo: movieRepo,
		userRepo:  userRepo,
		log:       log,
	}
}

// ListMovies returns the catalog filtered by genre and rating range.
func (h *MovieHandler) ListMovies(c *gin.Context) {
	var filter models.MovieFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}
	switch filter.SortBy {
	case "", models.MovieSortRating, models.MovieSortDate:
	default:
		ErrorResponse(c, http.StatusUnprocessableEntity, "sort_by must be rating or date")
		return
	}
	switch filter.Order {
	case "", "asc", "desc":
	default:
		ErrorResponse(c, http.StatusUnprocessableEntity, "order must be asc or desc")
		return
	}

	movies, err := h.movieRepo.List(filter)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies})
}

func (h *MovieHandler) GetMovie(c *gin.Context) {
	movie, err := h.movieRepo.GetByID(c.Param("id"))
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, movie)
}

func (h *MovieHandler) AddWatchLater(c *gin.Context) {
	movieID := c.Param("id")
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if err := h.userRepo.AddWatchLater(middleware.Identity(c).UserID, movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Movie added to watch later", "movie_id": movieID})
}

func (h *MovieHandler) RemoveWatchLater(c *gin.Context) {
	movieID := c.Param("id")
	if _, err := h.movieRepo.GetByID(movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	if err := h.userRepo.RemoveWatchLater(middleware.Identity(c).UserID, movieID); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Movie removed from watch later", "movie_id": movieID})
}

// GetWatchLater resolves the caller's watch-later ids to movies, skipping
// ids no longer in the catalog.
func (h *MovieHandler) GetWatchLater(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	movies := []*models.Movie{}
	for _, id := range user.WatchLater {
		movie, err := h.movieRepo.GetByID(id)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			errorFrom(c, h.log, err)
			return
		}
		movies = append(movies, movie)
	}

	c.JSON(http.StatusOK, gin.H{"watch_later": movies})
}
