package repository

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
)

const metadataFile = "metadata.json"

// MovieRepository reads the catalog: one directory per movie under dir, each
// holding a metadata.json. The catalog is supplied externally and never
// written here.
type MovieRepository struct {
	dir string
}

func NewMovieRepository(dir string) *MovieRepository {
	return &MovieRepository{dir: dir}
}

// GetByID loads one movie by its directory name.
func (r *MovieRepository) GetByID(id string) (*models.Movie, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return nil, apperrors.NotFound("movie %q not found", id)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, id, metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NotFound("movie %q not found", id)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "read metadata for %s", id)
	}
	movie := &models.Movie{ID: id}
	if err := json.Unmarshal(data, &movie.Metadata); err != nil {
		return nil, apperrors.Storage(err, "decode metadata for %s", id)
	}
	return movie, nil
}

// Exists reports whether id names a catalog entry.
func (r *MovieRepository) Exists(id string) (bool, error) {
	_, err := r.GetByID(id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns the catalog narrowed and ordered by filter.
func (r *MovieRepository) List(filter models.MovieFilter) ([]*models.Movie, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []*models.Movie{}, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err, "read catalog %s", r.dir)
	}

	movies := []*models.Movie{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		movie, err := r.GetByID(e.Name())
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !matchesMovie(movie, filter) {
			continue
		}
		movies = append(movies, movie)
	}

	desc := filter.Order == "desc"
	switch filter.SortBy {
	case models.MovieSortRating:
		sort.SliceStable(movies, func(i, j int) bool {
			a, b := movies[i].Metadata.MovieIMDbRating, movies[j].Metadata.MovieIMDbRating
			if desc {
				return a > b
			}
			return a < b
		})
	case models.MovieSortDate:
		sort.SliceStable(movies, func(i, j int) bool {
			a, b := movies[i].Metadata.DatePublished, movies[j].Metadata.DatePublished
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return movies, nil
}

func matchesMovie(m *models.Movie, f models.MovieFilter) bool {
	if f.Genre != "" {
		found := false
		for _, g := range m.Metadata.MovieGenres {
			if g == f.Genre {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinRating != nil && m.Metadata.MovieIMDbRating < *f.MinRating {
		return false
	}
	if f.MaxRating != nil && m.Metadata.MovieIMDbRating > *f.MaxRating {
		return false
	}
	return true
}
