package repository

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/storage"
)

type UserRepository struct {
	doc *storage.Document[[]*models.User]
}

func NewUserRepository(path string) *UserRepository {
	return &UserRepository{
		doc: storage.NewDocument(path, func() []*models.User { return []*models.User{} }),
	}
}

// Create stores a new user. Usernames and emails are unique.
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	if user.Penalties == nil {
		user.Penalties = []string{}
	}

	return r.doc.Update(func(users *[]*models.User) error {
		for _, u := range *users {
			if u.UserID == user.UserID {
				return apperrors.Conflict("user id already exists")
			}
			if strings.EqualFold(u.Username, user.Username) {
				return apperrors.Conflict("username already registered")
			}
			if strings.EqualFold(u.Email, user.Email) {
				return apperrors.Conflict("email already registered")
			}
		}
		*users = append(*users, user)
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	users, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.UserID == id {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user %s not found", id)
}

// GetByUsername retrieves a user by username, ignoring case as Create does.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	users, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user %s not found", username)
}

// List returns every user in store order.
func (r *UserRepository) List() ([]*models.User, error) {
	return r.doc.Load()
}

// AppendPenalty adds penaltyID to the user's penalty list. Appending an id
// that is already present is a no-op, so a retried issuance never duplicates.
func (r *UserRepository) AppendPenalty(userID, penaltyID string) error {
	return r.update(userID, func(u *models.User) error {
		if !u.HasPenalty(penaltyID) {
			u.Penalties = append(u.Penalties, penaltyID)
		}
		return nil
	})
}

// RemovePenalty drops penaltyID from the user's list if present.
func (r *UserRepository) RemovePenalty(userID, penaltyID string) error {
	return r.update(userID, func(u *models.User) error {
		kept := u.Penalties[:0]
		for _, id := range u.Penalties {
			if id != penaltyID {
				kept = append(kept, id)
			}
		}
		u.Penalties = kept
		return nil
	})
}

// SetPenalties rewrites the penalty lists of several users in one write.
// Users missing from lists are left untouched.
func (r *UserRepository) SetPenalties(lists map[string][]string) error {
	return r.doc.Update(func(users *[]*models.User) error {
		for _, u := range *users {
			if ids, ok := lists[u.UserID]; ok {
				u.Penalties = append([]string{}, ids...)
			}
		}
		return nil
	})
}

// AddWatchLater appends movieID to the user's watch-later list.
func (r *UserRepository) AddWatchLater(userID, movieID string) error {
	return r.update(userID, func(u *models.User) error {
		for _, id := range u.WatchLater {
			if id == movieID {
				return apperrors.Conflict("movie already in watch later list")
			}
		}
		u.WatchLater = append(u.WatchLater, movieID)
		return nil
	})
}

// RemoveWatchLater removes movieID from the user's watch-later list.
func (r *UserRepository) RemoveWatchLater(userID, movieID string) error {
	return r.update(userID, func(u *models.User) error {
		for i, id := range u.WatchLater {
			if id == movieID {
				u.WatchLater = append(u.WatchLater[:i], u.WatchLater[i+1:]...)
				return nil
			}
		}
		return apperrors.Conflict("movie not in watch later list")
	})
}

// EnsureSystemUser returns the account used for automated actions, creating
// it on first use. The account has no password and cannot log in.
func (r *UserRepository) EnsureSystemUser(username string) (*models.User, error) {
	var system *models.User
	err := r.doc.Update(func(users *[]*models.User) error {
		for _, u := range *users {
			if strings.EqualFold(u.Username, username) {
				if u.HashedPassword != "" {
					return apperrors.Conflict("username %s belongs to a regular account", u.Username)
				}
				system = u
				return nil
			}
		}
		system = &models.User{
			UserID:    uuid.NewString(),
			Username:  username,
			Email:     username + "@system.local",
			Role:      models.RoleModerator,
			Penalties: []string{},
		}
		*users = append(*users, system)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return system, nil
}

func (r *UserRepository) update(userID string, fn func(u *models.User) error) error {
	return r.doc.Update(func(users *[]*models.User) error {
		for _, u := range *users {
			if u.UserID == userID {
				return fn(u)
			}
		}
		return apperrors.NotFound("user %s not found", userID)
	})
}
