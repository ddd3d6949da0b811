package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

// localList accepts either a bare array or a paginated {"results": [...]} envelope.
type localList []models.MovieRecord

func (l *localList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []models.MovieRecord
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var envelope struct {
		Results []models.MovieRecord `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*l = envelope.Results
	return nil
}

func pageParam(page int) string {
	return strconv.Itoa(max(page, 1))
}

// ListLocalMovies lists the local catalog. Empty filters are omitted from the query.
func (s *BackendService) ListLocalMovies(ctx context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Genre != "" {
		q.Set("genre", f.Genre)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Page > 0 {
		q.Set("page", pageParam(f.Page))
	}

	var items localList
	err := s.do(ctx, request{method: http.MethodGet, route: "/movies/", path: "/movies/", query: q, result: &items})
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []models.MovieRecord{}, nil
	}
	return items, nil
}

func (s *BackendService) externalPage(ctx context.Context, route string, q url.Values) (*models.ExternalPage, error) {
	var page models.ExternalPage
	if err := s.do(ctx, request{method: http.MethodGet, route: route, path: route, query: q, result: &page}); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []models.MovieRecord{}
	}
	return &page, nil
}

// SearchExternalCatalog searches the external catalog by title.
func (s *BackendService) SearchExternalCatalog(ctx context.Context, query string, page int) (*models.ExternalPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query required", shared.ErrMissingArgument)
	}
	return s.externalPage(ctx, "/movies/tmdb/search/", url.Values{"q": {query}, "page": {pageParam(page)}})
}

// ListExternalPopular lists popular external movies.
func (s *BackendService) ListExternalPopular(ctx context.Context, page int) (*models.ExternalPage, error) {
	return s.externalPage(ctx, "/movies/tmdb/popular/", url.Values{"page": {pageParam(page)}})
}

// ListExternalTopRated lists top-rated external movies.
func (s *BackendService) ListExternalTopRated(ctx context.Context, page int) (*models.ExternalPage, error) {
	return s.externalPage(ctx, "/movies/tmdb/top-rated/", url.Values{"page": {pageParam(page)}})
}

// DiscoverExternal runs a filtered discover query against the external catalog.
func (s *BackendService) DiscoverExternal(ctx context.Context, f models.DiscoverFilters) (*models.ExternalPage, error) {
	q := url.Values{"page": {pageParam(f.Page)}}
	if len(f.GenreIDs) > 0 {
		ids := make([]string, 0, len(f.GenreIDs))
		for _, id := range f.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		q.Set("genre_ids", strings.Join(ids, ","))
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.MinRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	return s.externalPage(ctx, "/movies/tmdb/discover/", q)
}

// GetExternalDetails fetches one external movie with runtime, genres and credits.
func (s *BackendService) GetExternalDetails(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
	var movie models.MovieRecord
	err := s.do(ctx, request{
		method: http.MethodGet,
		route:  "/movies/tmdb/{id}/",
		path:   fmt.Sprintf("/movies/tmdb/%d/", tmdbID),
		result: &movie,
	})
	if err != nil {
		return nil, err
	}
	if movie.TMDBID == nil {
		movie.TMDBID = models.IntPtr(tmdbID)
	}
	return &movie, nil
}

// ImportExternalMovie copies an external movie into the local catalog. Admin only.
//
// A movie that is already imported fails with an error matching [shared.ErrAlreadyImported].
func (s *BackendService) ImportExternalMovie(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
	var movie models.MovieRecord
	err := s.do(ctx, request{
		method: http.MethodPost,
		route:  "/movies/tmdb/{id}/import/",
		path:   fmt.Sprintf("/movies/tmdb/%d/import/", tmdbID),
		result: &movie,
	})
	if err != nil {
		var rf *RequestFailed
		if errors.As(err, &rf) && rf.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(rf.Message), "already imported") {
			return nil, fmt.Errorf("%w: %w", shared.ErrAlreadyImported, err)
		}
		return nil, err
	}
	return &movie, nil
}

// GetMovie fetches one local movie.
func (s *BackendService) GetMovie(ctx context.Context, id int) (*models.MovieRecord, error) {
	var movie models.MovieRecord
	err := s.do(ctx, request{
		method: http.MethodGet,
		route:  "/movies/{id}/",
		path:   fmt.Sprintf("/movies/%d/", id),
		result: &movie,
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// CreateMovie uploads a new local movie as multipart form data, attaching the poster file when set.
func (s *BackendService) CreateMovie(ctx context.Context, in models.MovieInput) (*models.MovieRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	body, contentType, err := encodeMovieForm(in)
	if err != nil {
		return nil, err
	}

	var movie models.MovieRecord
	err = s.do(ctx, request{
		method:      http.MethodPost,
		route:       "/movies/create/",
		path:        "/movies/create/",
		body:        body,
		contentType: contentType,
		result:      &movie,
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// encodeMovieForm writes in as multipart fields the way the admin upload form sends them.
func encodeMovieForm(in models.MovieInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"trailer_url", in.TrailerURL},
		{"director", in.Director},
		{"language", in.Language},
	}
	if in.ReleaseYear > 0 {
		fields = append(fields, [2]string{"release_year", strconv.Itoa(in.ReleaseYear)})
	}
	if in.Runtime > 0 {
		fields = append(fields, [2]string{"runtime", strconv.Itoa(in.Runtime)})
	}
	for _, id := range in.GenreIDs {
		fields = append(fields, [2]string{"genre_ids", strconv.Itoa(id)})
	}
	if len(in.Actors) > 0 {
		actors, err := json.Marshal(in.Actors)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode actors: %w", err)
		}
		fields = append(fields, [2]string{"actors", string(actors)})
	}

	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}

	if in.PosterPath != "" {
		file, err := os.Open(in.PosterPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open poster: %w", err)
		}
		defer file.Close()

		part, err := w.CreateFormFile("poster", filepath.Base(in.PosterPath))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create poster part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("failed to copy poster: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// UpdateMovie replaces a local movie's editable fields.
func (s *BackendService) UpdateMovie(ctx context.Context, id int, in models.MovieInput) (*models.MovieRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var movie models.MovieRecord
	err := s.do(ctx, request{
		method: http.MethodPut,
		route:  "/movies/{id}/",
		path:   fmt.Sprintf("/movies/%d/", id),
		body:   in,
		result: &movie,
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// DeleteMovie removes a local movie. Callers confirm with the user first.
func (s *BackendService) DeleteMovie(ctx context.Context, id int) error {
	return s.do(ctx, request{
		method: http.MethodDelete,
		route:  "/movies/{id}/delete/",
		path:   fmt.Sprintf("/movies/%d/delete/", id),
	})
}

// ListGenres lists local genres.
func (s *BackendService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	if err := s.do(ctx, request{method: http.MethodGet, route: "/movies/genres/", path: "/movies/genres/", result: &genres}); err != nil {
		return nil, err
	}
	return genres, nil
}

// SyncGenres pulls genres from the external catalog. Admin only.
func (s *BackendService) SyncGenres(ctx context.Context) (*models.GenreSync, error) {
	var result models.GenreSync
	if err := s.do(ctx, request{method: http.MethodPost, route: "/movies/genres/sync/", path: "/movies/genres/sync/", result: &result}); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatchHistory lists the current user's watch history.
func (s *BackendService) WatchHistory(ctx context.Context) ([]models.WatchEntry, error) {
	var entries []models.WatchEntry
	err := s.do(ctx, request{method: http.MethodGet, route: "/movies/watch-history/", path: "/movies/watch-history/", result: &entries})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AddToWatchHistory records that the user watched a local movie.
func (s *BackendService) AddToWatchHistory(ctx context.Context, movieID int) (*models.WatchHistoryResult, error) {
	var result models.WatchHistoryResult
	err := s.do(ctx, request{
		method: http.MethodPost,
		route:  "/movies/watch-history/add/",
		path:   "/movies/watch-history/add/",
		body:   map[string]int{"movie_id": movieID},
		result: &result,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
