package models

import (
	"fmt"
	"time"
)

// Review is a user's rating of a local movie.
type Review struct {
	ID           int       `json:"id"`
	User         int       `json:"user"`
	UserUsername string    `json:"user_username"`
	Movie        int       `json:"movie"`
	MovieTitle   string    `json:"movie_title"`
	Rating       int       `json:"rating"`
	ReviewText   string    `json:"review_text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewInput creates or updates a review. Posting twice for the same movie updates the existing review.
type ReviewInput struct {
	Movie      int    `json:"movie"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// Validate enforces the 1-5 rating range.
func (r ReviewInput) Validate() error {
	if r.Movie <= 0 {
		return fmt.Errorf("movie id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// RatingSummary is the average rating of a movie.
type RatingSummary struct {
	MovieID       int     `json:"movie_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
