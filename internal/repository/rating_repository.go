package repository

import (
	"sort"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/storage"
)

type RatingRepository struct {
	doc *storage.Document[models.Ratings]
}

func NewRatingRepository(path string) *RatingRepository {
	return &RatingRepository{
		doc: storage.NewDocument(path, func() models.Ratings { return models.Ratings{} }),
	}
}

// Set creates or replaces the user's rating for a movie.
func (r *RatingRepository) Set(userID, movieID string, rating float64) error {
	if rating < 0 || rating > 10 {
		return apperrors.Validation("rating must be between 0 and 10")
	}
	return r.doc.Update(func(ratings *models.Ratings) error {
		if (*ratings)[userID] == nil {
			(*ratings)[userID] = map[string]float64{}
		}
		(*ratings)[userID][movieID] = rating
		return nil
	})
}

// Delete removes the user's rating for a movie. A user left with no ratings
// is dropped from the document.
func (r *RatingRepository) Delete(userID, movieID string) error {
	return r.doc.Update(func(ratings *models.Ratings) error {
		userRatings, ok := (*ratings)[userID]
		if !ok {
			return apperrors.NotFound("rating not found")
		}
		if _, ok := userRatings[movieID]; !ok {
			return apperrors.NotFound("rating not found")
		}
		delete(userRatings, movieID)
		if len(userRatings) == 0 {
			delete(*ratings, userID)
		}
		return nil
	})
}

// ForUser returns the user's ratings keyed by movie id.
func (r *RatingRepository) ForUser(userID string) (map[string]float64, error) {
	ratings, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	res := map[string]float64{}
	for movieID, v := range ratings[userID] {
		res[movieID] = v
	}
	return res, nil
}

// Get returns a single user's rating for a movie.
func (r *RatingRepository) Get(userID, movieID string) (float64, error) {
	ratings, err := r.doc.Load()
	if err != nil {
		return 0, err
	}
	v, ok := ratings[userID][movieID]
	if !ok {
		return 0, apperrors.NotFound("rating not found")
	}
	return v, nil
}

// Average returns the mean rating for a movie and the number of ratings.
// The mean is nil when nobody has rated the movie.
func (r *RatingRepository) Average(movieID string) (*float64, int, error) {
	ratings, err := r.doc.Load()
	if err != nil {
		return nil, 0, err
	}

	// Sum in a fixed order so the result does not depend on map iteration.
	userIDs := make([]string, 0, len(ratings))
	for userID := range ratings {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	var sum float64
	count := 0
	for _, userID := range userIDs {
		if v, ok := ratings[userID][movieID]; ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return nil, 0, nil
	}
	avg := sum / float64(count)
	return &avg, count, nil
}
