package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/middleware"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/repository"
)

type AuthHandler struct {
	userRepo   *repository.UserRepository
	jwtService *auth.JWTService
	log        *zap.Logger
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtService *auth.JWTService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtService: jwtService,
		log:        log,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		ErrorResponse(c, http.StatusUnprocessableEntity, "invalid role")
		return
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		UserID:         uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           role,
		Penalties:      []string{},
	}

	if err := h.userRepo.Create(user); err != nil {
		errorFrom(c, h.log, err)
		return
	}

	h.log.Info("user registered",
		zap.String("user_id", user.UserID),
		zap.String("role", string(user.Role)),
	)
	c.JSON(http.StatusCreated, user.Public())
}

// Login handles user login. Credentials come as JSON or as a password form.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userRepo.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		errorFrom(c, h.log, err)
		return
	}

	// Check password
	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// Generate token
	token, err := h.jwtService.GenerateToken(user.UserID, user.Role)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Logout is stateless; the client discards its token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetMe returns the current user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.Identity(c).UserID)
	if err != nil {
		errorFrom(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}
