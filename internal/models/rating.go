package models

// Ratings is the on-disk ratings document: user id -> movie id -> rating.
type Ratings map[string]map[string]float64

type RateMovieRequest struct {
	Rating *float64 `json:"rating" binding:"required,gte=0,lte=10"`
}

type UserRating struct {
	Movie      *Movie  `json:"movie"`
	UserRating float64 `json:"user_rating"`
}

type AverageRatingResponse struct {
	MovieID       string   `json:"movie_id"`
	AverageRating *float64 `json:"average_rating"`
	TotalRatings  int      `json:"total_ratings"`
}
