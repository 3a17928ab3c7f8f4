package models

// MovieMetadata mirrors the metadata.json shipped with each catalog entry.
type MovieMetadata struct {
	Title              string   `json:"title"`
	MovieIMDbRating    float64  `json:"movieIMDbRating"`
	TotalRatingCount   int      `json:"totalRatingCount"`
	TotalUserReviews   string   `json:"totalUserReviews"`
	TotalCriticReviews string   `json:"totalCriticReviews"`
	MetaScore          string   `json:"metaScore"`
	MovieGenres        []string `json:"movieGenres"`
	Directors          []string `json:"directors"`
	DatePublished      string   `json:"datePublished"`
	Creators           []string `json:"creators"`
	MainStars          []string `json:"mainStars"`
	Description        string   `json:"description"`
	Duration           int      `json:"duration"`
}

type Movie struct {
	ID       string        `json:"id"`
	Metadata MovieMetadata `json:"metadata"`
}

const (
	MovieSortRating = "rating"
	MovieSortDate   = "date"
)

type MovieFilter struct {
	Genre     string   `form:"genre"`
	MinRating *float64 `form:"min_rating"`
	MaxRating *float64 `form:"max_rating"`
	SortBy    string   `form:"sort_by"`
	Order     string   `form:"order"`
}
