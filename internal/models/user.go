package models

import (
	"fmt"
	"strings"
)

// Role is the access level carried in a user's bearer credential.
type Role string

const (
	RoleMember        Role = "member"
	RoleCritic        Role = "critic"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleCritic, RoleModerator, RoleAdministrator:
		return true
	}
	return false
}

// User is a record of the user store. Penalties holds the ids of the user's
// active penalties in issue order.
type User struct {
	UserID             string   `json:"user_id"`
	Username           string   `json:"username"`
	Email              string   `json:"email"`
	HashedPassword     string   `json:"hashed_password"`
	Role               Role     `json:"role"`
	Penalties          []string `json:"penalties"`
	WatchLater         []string `json:"watch_later,omitempty"`
	Reviews            []string `json:"reviews,omitempty"`
	SpecialPermissions []string `json:"special_permissions,omitempty"`
}

// Validate checks basic user fields
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(u.Username) < 3 || len(u.Username) > 50 {
		return fmt.Errorf("username length invalid")
	}
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// HasPenalty reports whether penaltyID is in the user's penalty list.
func (u *User) HasPenalty(penaltyID string) bool {
	for _, id := range u.Penalties {
		if id == penaltyID {
			return true
		}
	}
	return false
}

// Public strips the credential hash for API responses.
func (u *User) Public() UserResponse {
	penalties := u.Penalties
	if penalties == nil {
		penalties = []string{}
	}
	return UserResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Penalties: penalties,
	}
}

type UserResponse struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      Role     `json:"role"`
	Penalties []string `json:"penalties"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role,omitempty"`
}

// LoginRequest binds from JSON or from an OAuth2-style password form.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
