package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

// ListMovieReviews lists reviews of a local movie.
func (s *BackendService) ListMovieReviews(ctx context.Context, movieID int) ([]models.Review, error) {
	var reviews []models.Review
	err := s.do(ctx, request{
		method: http.MethodGet,
		route:  "/reviews/movie/{id}/",
		path:   fmt.Sprintf("/reviews/movie/%d/", movieID),
		result: &reviews,
	})
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// MyReviews lists the current user's reviews.
func (s *BackendService) MyReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.do(ctx, request{method: http.MethodGet, route: "/reviews/my-reviews/", path: "/reviews/my-reviews/", result: &reviews}); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview posts a review. A second review of the same movie updates the first.
func (s *BackendService) CreateReview(ctx context.Context, in models.ReviewInput) (*models.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var review models.Review
	if err := s.do(ctx, request{method: http.MethodPost, route: "/reviews/", path: "/reviews/", body: in, result: &review}); err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview edits one of the current user's reviews.
func (s *BackendService) UpdateReview(ctx context.Context, id int, in models.ReviewInput) (*models.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var review models.Review
	err := s.do(ctx, request{
		method: http.MethodPut,
		route:  "/reviews/{id}/",
		path:   fmt.Sprintf("/reviews/%d/", id),
		body:   in,
		result: &review,
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes one of the current user's reviews.
func (s *BackendService) DeleteReview(ctx context.Context, id int) error {
	return s.do(ctx, request{
		method: http.MethodDelete,
		route:  "/reviews/{id}/delete/",
		path:   fmt.Sprintf("/reviews/%d/delete/", id),
	})
}

// MovieAverage returns the average rating and review count of a local movie.
func (s *BackendService) MovieAverage(ctx context.Context, movieID int) (*models.RatingSummary, error) {
	var summary models.RatingSummary
	err := s.do(ctx, request{
		method: http.MethodGet,
		route:  "/reviews/movie/{id}/average/",
		path:   fmt.Sprintf("/reviews/movie/%d/average/", movieID),
		result: &summary,
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
