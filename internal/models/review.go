package models

// ReviewDateLayout is the date format used in the reviews CSV.
const ReviewDateLayout = "02 January 2006"

// Review is one row of a movie's reviews.csv.
type Review struct {
	Date           string   `json:"date"`
	User           string   `json:"user"`
	UsefulnessVote *int     `json:"usefulness_vote"`
	TotalVotes     *int     `json:"total_votes"`
	Rating         *float64 `json:"rating"`
	Title          string   `json:"title"`
	Text           string   `json:"review"`
}

type ReviewFilter struct {
	User              string   `form:"user"`
	StartDate         string   `form:"start_date"`
	EndDate           string   `form:"end_date"`
	MinRating         *float64 `form:"min_rating"`
	MaxRating         *float64 `form:"max_rating"`
	MinUsefulnessVote *int     `form:"min_usefulness_vote"`
	MinTotalVotes     *int     `form:"min_total_votes"`
	Skip              int      `form:"skip"`
	Limit             int      `form:"limit"`
}

type CreateReviewRequest struct {
	ReviewTitle string   `json:"review_title" binding:"required"`
	ReviewText  string   `json:"review_text" binding:"required"`
	Rating      *float64 `json:"rating,omitempty" binding:"omitempty,gte=0,lte=10"`
}
