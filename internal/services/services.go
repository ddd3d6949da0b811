// package services defines the gateway interfaces to the catalog backend
package services

import (
	"context"

	"github.com/desertthunder/figx/internal/models"
)

// CatalogGateway is what the listing engine needs: the local catalog plus the external catalog proxied by the backend.
type CatalogGateway interface {
	// ListLocalMovies lists the local catalog. Filters are optional.
	ListLocalMovies(ctx context.Context, filters models.MovieFilters) ([]models.MovieRecord, error)

	// SearchExternalCatalog searches the external catalog.
	SearchExternalCatalog(ctx context.Context, query string, page int) (*models.ExternalPage, error)

	// ListExternalPopular lists popular external movies.
	ListExternalPopular(ctx context.Context, page int) (*models.ExternalPage, error)

	// ListExternalTopRated lists top-rated external movies.
	ListExternalTopRated(ctx context.Context, page int) (*models.ExternalPage, error)

	// GetExternalDetails fetches one external movie.
	GetExternalDetails(ctx context.Context, tmdbID int) (*models.MovieRecord, error)

	// ImportExternalMovie copies an external movie into the local catalog.
	ImportExternalMovie(ctx context.Context, tmdbID int) (*models.MovieRecord, error)
}

// MovieGateway covers local movie detail and admin catalog management.
type MovieGateway interface {
	GetMovie(ctx context.Context, id int) (*models.MovieRecord, error)
	CreateMovie(ctx context.Context, in models.MovieInput) (*models.MovieRecord, error)
	UpdateMovie(ctx context.Context, id int, in models.MovieInput) (*models.MovieRecord, error)
	DeleteMovie(ctx context.Context, id int) error
	ListGenres(ctx context.Context) ([]models.Genre, error)
	SyncGenres(ctx context.Context) (*models.GenreSync, error)
	DiscoverExternal(ctx context.Context, filters models.DiscoverFilters) (*models.ExternalPage, error)
}

// ReviewGateway covers reviews and ratings.
type ReviewGateway interface {
	ListMovieReviews(ctx context.Context, movieID int) ([]models.Review, error)
	MyReviews(ctx context.Context) ([]models.Review, error)
	CreateReview(ctx context.Context, in models.ReviewInput) (*models.Review, error)
	UpdateReview(ctx context.Context, id int, in models.ReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, id int) error
	MovieAverage(ctx context.Context, movieID int) (*models.RatingSummary, error)
}

// RecommendationGateway covers personalized picks and the recommendation chat.
type RecommendationGateway interface {
	Recommendations(ctx context.Context, limit int) (*models.Recommendations, error)
	SimilarMovies(ctx context.Context, movieID, limit int) (*models.SimilarMovies, error)
	Chat(ctx context.Context, message string) (*models.ChatExchange, error)
	ChatHistory(ctx context.Context) ([]models.ChatMessage, error)
	ClearChatHistory(ctx context.Context) error
}

// AccountGateway covers the current user.
type AccountGateway interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	Preferences(ctx context.Context) (*models.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.Preferences, error)
	WatchHistory(ctx context.Context) ([]models.WatchEntry, error)
	AddToWatchHistory(ctx context.Context, movieID int) (*models.WatchHistoryResult, error)
}

// UserAdminGateway covers account management. Admin only.
type UserAdminGateway interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	UpdateUser(ctx context.Context, id int, patch models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// Gateway is the full backend surface.
type Gateway interface {
	CatalogGateway
	MovieGateway
	ReviewGateway
	RecommendationGateway
	AccountGateway
	UserAdminGateway

	// Name identifies the backend, e.g. its origin.
	Name() string
}

var _ Gateway = (*BackendService)(nil)
