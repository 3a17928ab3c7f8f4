package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/storage"
)

const reviewsFile = "reviews.csv"

// Column headers of reviews.csv.
var reviewColumns = []string{
	"Date of Review",
	"User",
	"Usefulness Vote",
	"Total Votes",
	"User's rating out of 10",
	"Review Title",
	"Review",
}

const defaultReviewLimit = 50

// ReviewRepository reads and appends the per-movie reviews.csv files that
// live next to each movie's metadata.
type ReviewRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewReviewRepository(dir string) *ReviewRepository {
	return &ReviewRepository{dir: dir}
}

func (r *ReviewRepository) path(movieID string) string {
	return filepath.Join(r.dir, movieID, reviewsFile)
}

// List returns the movie's reviews narrowed by filter, then paged by
// filter.Skip and filter.Limit (default 50).
func (r *ReviewRepository) List(movieID string, filter models.ReviewFilter) ([]models.Review, error) {
	r.mu.RLock()
	reviews, err := r.load(movieID)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	matched := []models.Review{}
	for _, rv := range reviews {
		if matchesReview(rv, filter) {
			matched = append(matched, rv)
		}
	}

	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	if skip >= len(matched) {
		return []models.Review{}, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

// Append adds a review row. The file is rewritten through a temp file so a
// concurrent reader never sees a torn row.
func (r *ReviewRepository) Append(movieID string, review models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.path(movieID)
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Storage(err, "read %s", path)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	w := csv.NewWriter(&buf)
	if len(bytes.TrimSpace(existing)) == 0 {
		buf.Reset()
		if err := w.Write(reviewColumns); err != nil {
			return apperrors.Storage(err, "encode header for %s", path)
		}
	}
	if err := w.Write(reviewRecord(review)); err != nil {
		return apperrors.Storage(err, "encode review for %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.Storage(err, "encode review for %s", path)
	}
	return storage.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func (r *ReviewRepository) load(movieID string) ([]models.Review, error) {
	path := r.path(movieID)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Review{}, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err, "open %s", path)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return []models.Review{}, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err, "read header of %s", path)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	reviews := []models.Review{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Storage(err, "read %s", path)
		}
		reviews = append(reviews, models.Review{
			Date:           field(rec, reviewColumns[0]),
			User:           field(rec, reviewColumns[1]),
			UsefulnessVote: parseCount(field(rec, reviewColumns[2])),
			TotalVotes:     parseCount(field(rec, reviewColumns[3])),
			Rating:         parseRating(field(rec, reviewColumns[4])),
			Title:          field(rec, reviewColumns[5]),
			Text:           field(rec, reviewColumns[6]),
		})
	}
	return reviews, nil
}

func reviewRecord(rv models.Review) []string {
	rec := []string{rv.Date, rv.User, "0", "0", "", rv.Title, rv.Text}
	if rv.UsefulnessVote != nil {
		rec[2] = strconv.Itoa(*rv.UsefulnessVote)
	}
	if rv.TotalVotes != nil {
		rec[3] = strconv.Itoa(*rv.TotalVotes)
	}
	if rv.Rating != nil {
		rec[4] = strconv.FormatFloat(*rv.Rating, 'f', -1, 64)
	}
	return rec
}

func parseCount(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

func parseRating(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func matchesReview(rv models.Review, f models.ReviewFilter) bool {
	if f.User != "" && !strings.Contains(strings.ToLower(rv.User), strings.ToLower(f.User)) {
		return false
	}
	if f.StartDate != "" && !onOrAfter(rv.Date, f.StartDate) {
		return false
	}
	if f.EndDate != "" && !onOrAfter(f.EndDate, rv.Date) {
		return false
	}
	if f.MinRating != nil && (rv.Rating == nil || *rv.Rating < *f.MinRating) {
		return false
	}
	if f.MaxRating != nil && (rv.Rating == nil || *rv.Rating > *f.MaxRating) {
		return false
	}
	if f.MinUsefulnessVote != nil && (rv.UsefulnessVote == nil || *rv.UsefulnessVote < *f.MinUsefulnessVote) {
		return false
	}
	if f.MinTotalVotes != nil && (rv.TotalVotes == nil || *rv.TotalVotes < *f.MinTotalVotes) {
		return false
	}
	return true
}

// onOrAfter compares two dates given either as review dates ("02 January
// 2006") or ISO dates. Unparseable values fall back to string order.
func onOrAfter(a, b string) bool {
	if a == "" {
		return false
	}
	ta, errA := parseReviewDate(a)
	tb, errB := parseReviewDate(b)
	if errA != nil || errB != nil {
		return a >= b
	}
	return !ta.Before(tb)
}

func parseReviewDate(s string) (time.Time, error) {
	for _, layout := range []string{models.ReviewDateLayout, "2 January 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised date")
}
