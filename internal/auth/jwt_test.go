package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinereview/backend/internal/models"
)

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService("test-secret-key", 24)
	userID := uuid.NewString()

	token, err := service.GenerateToken(userID, models.RoleModerator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_Rejects(t *testing.T) {
	service := NewJWTService("secret-a", 24)

	foreign, err := NewJWTService("secret-b", 24).GenerateToken(uuid.NewString(), models.RoleAdministrator)
	require.NoError(t, err)

	expired, err := NewJWTService("secret-a", -1).GenerateToken(uuid.NewString(), models.RoleMember)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: models.RoleModerator}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: models.RoleModerator}).
		SignedString([]byte("secret-a"))
	require.NoError(t, err)

	tests := map[string]string{
		"malformed":       "invalid.token.here",
		"other secret":    foreign,
		"expired":         expired,
		"unsigned":        unsigned,
		"missing user id": anonymous,
		"empty":           "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := service.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
