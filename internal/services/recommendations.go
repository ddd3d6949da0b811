package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

// Recommendations returns up to limit personalized picks. A limit of zero uses the backend default.
func (s *BackendService) Recommendations(ctx context.Context, limit int) (*models.Recommendations, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var recs models.Recommendations
	if err := s.do(ctx, request{method: http.MethodGet, route: "/recommendations/", path: "/recommendations/", query: q, result: &recs}); err != nil {
		return nil, err
	}
	return &recs, nil
}

// SimilarMovies returns movies similar to a local movie.
func (s *BackendService) SimilarMovies(ctx context.Context, movieID, limit int) (*models.SimilarMovies, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var similar models.SimilarMovies
	err := s.do(ctx, request{
		method: http.MethodGet,
		route:  "/recommendations/similar/{id}/",
		path:   fmt.Sprintf("/recommendations/similar/%d/", movieID),
		query:  q,
		result: &similar,
	})
	if err != nil {
		return nil, err
	}
	return &similar, nil
}

// Chat sends a message to the recommendation bot.
func (s *BackendService) Chat(ctx context.Context, message string) (*models.ChatExchange, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", shared.ErrMissingArgument)
	}

	var exchange models.ChatExchange
	err := s.do(ctx, request{
		method: http.MethodPost,
		route:  "/recommendations/chat/",
		path:   "/recommendations/chat/",
		body:   map[string]string{"message": message},
		result: &exchange,
	})
	if err != nil {
		return nil, err
	}
	return &exchange, nil
}

// ChatHistory lists the conversation with the bot, oldest first.
func (s *BackendService) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.do(ctx, request{method: http.MethodGet, route: "/recommendations/chat/history/", path: "/recommendations/chat/history/", result: &messages})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearChatHistory deletes the conversation with the bot.
func (s *BackendService) ClearChatHistory(ctx context.Context) error {
	return s.do(ctx, request{method: http.MethodDelete, route: "/recommendations/chat/history/", path: "/recommendations/chat/history/"})
}
