package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/models"
)

func TestMovies(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)

	w := s.do(t, http.MethodGet, "/movies?sort_by=rating&order=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Movies []models.Movie `json:"movies"`
	}](t, w)
	require.Len(t, listed.Movies, 2)
	assert.Equal(t, "alien", listed.Movies[0].ID)

	w = s.do(t, http.MethodGet, "/movies?sort_by=title", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/movies/heat", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/movies/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Watch later
	w = s.do(t, http.MethodPost, "/movies/heat/watch-later", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/movies/heat/watch-later", member, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/movies/user/watch-later", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	later := decode[struct {
		WatchLater []models.Movie `json:"watch_later"`
	}](t, w)
	require.Len(t, later.WatchLater, 1)
	assert.Equal(t, "Heat", later.WatchLater[0].Metadata.Title)

	w = s.do(t, http.MethodDelete, "/movies/heat/watch-later", member, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/movies/heat/watch-later", member, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewsAndRatings(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "u1", models.RoleMember)
	critic := s.addUser(t, "c1", models.RoleCritic)

	w := s.do(t, http.MethodPost, "/reviews/heat", "", jsonBody{"review_title": "t", "review_text": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/reviews/heat", member, jsonBody{
		"review_title": "A classic", "review_text": "The diner scene alone.", "rating": 9,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/reviews/heat", critic, jsonBody{
		"review_title": "Overlong", "review_text": "Could lose an hour.", "rating": 6,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/reviews/heat", critic, jsonBody{
		"review_title": "Bad", "review_text": "x", "rating": 11,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/reviews/missing", member, jsonBody{"review_title": "t", "review_text": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/reviews/heat?user=USER-U1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviews := decode[struct {
		Reviews []models.Review `json:"reviews"`
	}](t, w)
	require.Len(t, reviews.Reviews, 1)
	assert.Equal(t, "A classic", reviews.Reviews[0].Title)
	require.NotNil(t, reviews.Reviews[0].UsefulnessVote)
	assert.Equal(t, 0, *reviews.Reviews[0].UsefulnessVote)

	// Ratings given with reviews feed the average.
	w = s.do(t, http.MethodGet, "/ratings/heat/average", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	avg := decode[models.AverageRatingResponse](t, w)
	require.NotNil(t, avg.AverageRating)
	assert.InDelta(t, 7.5, *avg.AverageRating, 1e-9)
	assert.Equal(t, 2, avg.TotalRatings)

	w = s.do(t, http.MethodPost, "/ratings/heat", member, jsonBody{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/ratings/heat/user", member, nil)
	assert.JSONEq(t, `{"movie_id":"heat","user_rating":4}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/ratings/user", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[struct {
		Ratings []models.UserRating `json:"ratings"`
	}](t, w)
	require.Len(t, mine.Ratings, 1)
	assert.Equal(t, "heat", mine.Ratings[0].Movie.ID)

	w = s.do(t, http.MethodDelete, "/ratings/heat", member, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/ratings/heat", member, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/ratings/heat/user", member, nil)
	assert.JSONEq(t, `{"movie_id":"heat","user_rating":null}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/ratings/alien/average", member, nil)
	assert.JSONEq(t, `{"movie_id":"alien","average_rating":null,"total_ratings":0}`, w.Body.String())
}
