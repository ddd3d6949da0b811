package models

import (
	"fmt"
	"strings"
	"time"
)

// Roles known to the backend.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account as returned by the backend.
type User struct {
	ID          int          `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Role        string       `json:"role"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	DateJoined  time.Time    `json:"date_joined,omitzero"`
}

// IsAdmin reports whether the user may manage the catalog.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Active treats a missing flag as active.
func (u User) Active() bool { return u.IsActive == nil || *u.IsActive }

// UserUpdate is the admin patch for a user. Nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Preferences drive personalized recommendations.
type Preferences struct {
	FavoriteGenres            []string `json:"favorite_genres"`
	FavoriteActors            []string `json:"favorite_actors"`
	PreferredLanguages        []string `json:"preferred_languages"`
	MinRating                 float64  `json:"min_rating"`
	PreferredReleaseYearStart *int     `json:"preferred_release_year_start"`
	PreferredReleaseYearEnd   *int     `json:"preferred_release_year_end"`
}

// Validate checks rating and year bounds.
func (p Preferences) Validate() error {
	if p.MinRating < 0 || p.MinRating > 10 {
		return fmt.Errorf("min rating must be between 0 and 10")
	}
	if p.PreferredReleaseYearStart != nil && p.PreferredReleaseYearEnd != nil &&
		*p.PreferredReleaseYearStart > *p.PreferredReleaseYearEnd {
		return fmt.Errorf("release year start must not be after end")
	}
	return nil
}

// Credentials are exchanged for a [TokenPair].
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration creates a new account.
type Registration struct {
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	Password        string       `json:"password"`
	PasswordConfirm string       `json:"password_confirm"`
	Role            string       `json:"role,omitempty"`
	Preferences     *Preferences `json:"preferences,omitempty"`
}

// Validate mirrors the backend's registration rules so obvious mistakes fail before a request.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if r.Password != r.PasswordConfirm {
		return fmt.Errorf("passwords do not match")
	}
	if r.Role != "" && r.Role != RoleAdmin && r.Role != RoleUser {
		return fmt.Errorf("role must be %q or %q", RoleAdmin, RoleUser)
	}
	return nil
}

// TokenPair is the JWT pair issued on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// RegistrationResult is returned by a successful registration.
type RegistrationResult struct {
	User    User      `json:"user"`
	Tokens  TokenPair `json:"tokens"`
	Message string    `json:"message"`
}
