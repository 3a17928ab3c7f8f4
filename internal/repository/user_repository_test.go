package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
)

func newUserRepo(t *testing.T) *UserRepository {
	t.Helper()
	return NewUserRepository(filepath.Join(t.TempDir(), "users.json"))
}

func seedUser(t *testing.T, repo *UserRepository, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: models.RoleMember}
	require.NoError(t, repo.Create(u))
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newUserRepo(t)
	u := seedUser(t, repo, "alice")

	assert.NotEmpty(t, u.UserID)

	byID, err := repo.GetByID(u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, []string{}, byID.Penalties)

	byName, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, byName.UserID)

	// Usernames are unique ignoring case, so lookups ignore case too.
	byName, err = repo.GetByUsername("ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, byName.UserID)

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := newUserRepo(t)
	seedUser(t, repo, "alice")

	err := repo.Create(&models.User{Username: "alice", Email: "other@example.com", Role: models.RoleMember})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = repo.Create(&models.User{Username: "Alice", Email: "third@example.com", Role: models.RoleMember})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = repo.Create(&models.User{Username: "alice2", Email: "ALICE@example.com", Role: models.RoleMember})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = repo.Create(&models.User{Username: "x", Email: "x@example.com", Role: models.RoleMember})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserRepository_AppendPenaltyIsIdempotent(t *testing.T) {
	repo := newUserRepo(t)
	u := seedUser(t, repo, "bob")

	require.NoError(t, repo.AppendPenalty(u.UserID, "penalty_1"))
	require.NoError(t, repo.AppendPenalty(u.UserID, "penalty_1"))
	require.NoError(t, repo.AppendPenalty(u.UserID, "penalty_2"))

	got, err := repo.GetByID(u.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"penalty_1", "penalty_2"}, got.Penalties)

	require.NoError(t, repo.RemovePenalty(u.UserID, "penalty_1"))
	got, err = repo.GetByID(u.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"penalty_2"}, got.Penalties)

	assert.ErrorIs(t, repo.AppendPenalty("ghost", "penalty_3"), apperrors.ErrNotFound)
}

func TestUserRepository_SetPenalties(t *testing.T) {
	repo := newUserRepo(t)
	a := seedUser(t, repo, "alice")
	b := seedUser(t, repo, "bob")
	require.NoError(t, repo.AppendPenalty(b.UserID, "penalty_keep"))

	require.NoError(t, repo.SetPenalties(map[string][]string{a.UserID: {"penalty_9"}}))

	gotA, err := repo.GetByID(a.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"penalty_9"}, gotA.Penalties)

	gotB, err := repo.GetByID(b.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"penalty_keep"}, gotB.Penalties)
}

func TestUserRepository_WatchLater(t *testing.T) {
	repo := newUserRepo(t)
	u := seedUser(t, repo, "carol")

	require.NoError(t, repo.AddWatchLater(u.UserID, "m1"))
	assert.ErrorIs(t, repo.AddWatchLater(u.UserID, "m1"), apperrors.ErrConflict)
	require.NoError(t, repo.RemoveWatchLater(u.UserID, "m1"))
	assert.ErrorIs(t, repo.RemoveWatchLater(u.UserID, "m1"), apperrors.ErrConflict)
}

func TestUserRepository_EnsureSystemUser(t *testing.T) {
	repo := newUserRepo(t)

	first, err := repo.EnsureSystemUser("automod")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, first.Role)
	assert.Empty(t, first.HashedPassword)

	second, err := repo.EnsureSystemUser("automod")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	users, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_EnsureSystemUserRejectsRegularAccount(t *testing.T) {
	repo := newUserRepo(t)
	require.NoError(t, repo.Create(&models.User{
		Username:       "AutoMod",
		Email:          "someone@example.com",
		Role:           models.RoleMember,
		HashedPassword: "$2a$10$placeholder",
	}))

	_, err := repo.EnsureSystemUser("automod")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
