package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

// CurrentUser returns the logged-in user.
func (s *BackendService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.do(ctx, request{method: http.MethodGet, route: "/user/", path: "/user/", result: &user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Preferences returns the current user's recommendation preferences.
func (s *BackendService) Preferences(ctx context.Context) (*models.Preferences, error) {
	var prefs models.Preferences
	if err := s.do(ctx, request{method: http.MethodGet, route: "/preferences/", path: "/preferences/", result: &prefs}); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences replaces the current user's preferences.
func (s *BackendService) UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.Preferences, error) {
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var updated models.Preferences
	err := s.do(ctx, request{method: http.MethodPut, route: "/preferences/update/", path: "/preferences/update/", body: prefs, result: &updated})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListUsers lists every account. Admin only.
func (s *BackendService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.do(ctx, request{method: http.MethodGet, route: "/users/", path: "/users/", result: &users}); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one account. Admin only.
func (s *BackendService) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := s.do(ctx, request{method: http.MethodGet, route: "/users/{id}/", path: fmt.Sprintf("/users/%d/", id), result: &user})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// userEnvelope accepts a bare user or {"message": ..., "user": {...}}.
type userEnvelope models.User

func (u *userEnvelope) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(bytes.TrimSpace(wrapped.User)) > 0 && wrapped.User[0] == '{' {
		data = wrapped.User
	}
	return json.Unmarshal(data, (*models.User)(u))
}

// UpdateUser patches an account's role, email or active flag. Admin only.
func (s *BackendService) UpdateUser(ctx context.Context, id int, patch models.UserUpdate) (*models.User, error) {
	var user userEnvelope
	err := s.do(ctx, request{
		method: http.MethodPut,
		route:  "/users/{id}/update/",
		path:   fmt.Sprintf("/users/%d/update/", id),
		body:   patch,
		result: &user,
	})
	if err != nil {
		return nil, err
	}
	return (*models.User)(&user), nil
}

// DeleteUser removes an account. Admin only.
func (s *BackendService) DeleteUser(ctx context.Context, id int) error {
	return s.do(ctx, request{method: http.MethodDelete, route: "/users/{id}/delete/", path: fmt.Sprintf("/users/%d/delete/", id)})
}
