// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/figx/internal/models"
)

// MockGateway is a test double for services.CatalogGateway.
// Nil funcs return empty results. Every call is recorded by name.
type MockGateway struct {
	ListLocalFn func(ctx context.Context, f models.MovieFilters) ([]models.MovieRecord, error)
	SearchFn    func(ctx context.Context, query string, page int) (*models.ExternalPage, error)
	PopularFn   func(ctx context.Context, page int) (*models.ExternalPage, error)
	TopRatedFn  func(ctx context.Context, page int) (*models.ExternalPage, error)
	DetailsFn   func(ctx context.Context, tmdbID int) (*models.MovieRecord, error)
	ImportFn    func(ctx context.Context, tmdbID int) (*models.MovieRecord, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the recorded call names in order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockGateway) ListLocalMovies(ctx context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
	m.record("local")
	if m.ListLocalFn != nil {
		return m.ListLocalFn(ctx, f)
	}
	return []models.MovieRecord{}, nil
}

func (m *MockGateway) SearchExternalCatalog(ctx context.Context, query string, page int) (*models.ExternalPage, error) {
	m.record("search")
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query, page)
	}
	return &models.ExternalPage{Page: page, TotalPages: 1}, nil
}

func (m *MockGateway) ListExternalPopular(ctx context.Context, page int) (*models.ExternalPage, error) {
	m.record("popular")
	if m.PopularFn != nil {
		return m.PopularFn(ctx, page)
	}
	return &models.ExternalPage{Page: page, TotalPages: 1}, nil
}

func (m *MockGateway) ListExternalTopRated(ctx context.Context, page int) (*models.ExternalPage, error) {
	m.record("top_rated")
	if m.TopRatedFn != nil {
		return m.TopRatedFn(ctx, page)
	}
	return &models.ExternalPage{Page: page, TotalPages: 1}, nil
}

func (m *MockGateway) GetExternalDetails(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
	m.record("details")
	if m.DetailsFn != nil {
		return m.DetailsFn(ctx, tmdbID)
	}
	return &models.MovieRecord{TMDBID: models.IntPtr(tmdbID)}, nil
}

func (m *MockGateway) ImportExternalMovie(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
	m.record("import")
	if m.ImportFn != nil {
		return m.ImportFn(ctx, tmdbID)
	}
	return &models.MovieRecord{ID: models.IntPtr(1), TMDBID: models.IntPtr(tmdbID), SourceHint: models.HintExternal}, nil
}

// LocalMovie builds a local catalog row.
func LocalMovie(id int, title string) models.MovieRecord {
	return models.MovieRecord{ID: models.IntPtr(id), Title: title, SourceHint: models.HintAdmin}
}

// ExternalMovie builds an external catalog row.
func ExternalMovie(tmdbID int, title string) models.MovieRecord {
	return models.MovieRecord{TMDBID: models.IntPtr(tmdbID), Title: title}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
