package models

import (
	"fmt"
	"strings"
	"time"
)

// Session is a saved login for one backend.
type Session struct {
	id           string
	backendURL   string
	username     string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	cookies      string
	isStaff      bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewSession creates a session for username against backendURL.
func NewSession(backendURL, username string) *Session {
	now := time.Now()
	return &Session{
		backendURL: strings.TrimRight(backendURL, "/"),
		username:   username,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }
func (s *Session) BackendURL() string   { return s.backendURL }
func (s *Session) Username() string     { return s.username }
func (s *Session) AccessToken() string  { return s.accessToken }
func (s *Session) RefreshToken() string { return s.refreshToken }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }
func (s *Session) Cookies() string      { return s.cookies }
func (s *Session) IsStaff() bool        { return s.isStaff }

func (s *Session) SetID(id string)                { s.id = id }
func (s *Session) SetCreatedAt(t time.Time)       { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)       { s.updatedAt = t }
func (s *Session) SetCookies(c string)            { s.cookies = c }
func (s *Session) SetIsStaff(staff bool)          { s.isStaff = staff }
func (s *Session) SetUsername(username string)    { s.username = username }
func (s *Session) SetExpiresAt(expires time.Time) { s.expiresAt = expires }

// SetTokens stores a new token pair. An empty refresh token keeps the previous one.
func (s *Session) SetTokens(access, refresh string, expiresAt time.Time) {
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	s.expiresAt = expiresAt
}

// Validate checks required fields.
func (s *Session) Validate() error {
	if s.backendURL == "" {
		return fmt.Errorf("session backend url is required")
	}
	if strings.TrimSpace(s.username) == "" {
		return fmt.Errorf("session username is required")
	}
	if s.accessToken == "" && s.cookies == "" {
		return fmt.Errorf("session needs an access token or cookies")
	}
	return nil
}
