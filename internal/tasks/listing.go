package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/sourcegraph/conc/pool"
)

// Source selects which catalog(s) a listing draws from.
type Source int

const (
	SourceAll Source = iota
	SourceLocal
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceExternal:
		return "external"
	default:
		return "all"
	}
}

// Next cycles All -> Local -> External -> All.
func (s Source) Next() Source {
	return (s + 1) % 3
}

// ParseSource accepts "all", "local", "external" and "tmdb".
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return SourceAll, nil
	case "local":
		return SourceLocal, nil
	case "external", "tmdb":
		return SourceExternal, nil
	}
	return SourceAll, fmt.Errorf("%w: unknown source %q (want all, local or external)", shared.ErrInvalidArgument, s)
}

// SortKey orders the external listing.
type SortKey string

const (
	SortPopular  SortKey = "popular"
	SortTopRated SortKey = "top_rated"
)

// Toggle switches between popular and top rated.
func (k SortKey) Toggle() SortKey {
	if k == SortTopRated {
		return SortPopular
	}
	return SortTopRated
}

// ParseSortKey accepts "popular", "top_rated" and "top-rated".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "popular":
		return SortPopular, nil
	case "top_rated", "top-rated":
		return SortTopRated, nil
	}
	return SortPopular, fmt.Errorf("%w: unknown sort %q (want popular or top_rated)", shared.ErrInvalidArgument, s)
}

// ViewState is everything a listing load depends on. Callers own it and pass it in;
// the engine keeps no page, source or query of its own.
type ViewState struct {
	Source Source
	Query  string
	Page   int
	Sort   SortKey
	Genre  string
	Year   int
}

// Normalize trims the query, clamps the page to 1 and defaults the sort.
func (v ViewState) Normalize() ViewState {
	v.Query = strings.TrimSpace(v.Query)
	v.Page = max(v.Page, 1)
	if v.Sort == "" {
		v.Sort = SortPopular
	}
	return v
}

// Searching reports whether the state is in search mode.
func (v ViewState) Searching() bool { return strings.TrimSpace(v.Query) != "" }

// WithSource switches source and returns to page 1.
func (v ViewState) WithSource(s Source) ViewState {
	v.Source = s
	v.Page = 1
	return v
}

// WithQuery starts a new search (or clears it) on page 1.
func (v ViewState) WithQuery(q string) ViewState {
	v.Query = q
	v.Page = 1
	return v
}

// WithPage moves to page p, never below 1.
func (v ViewState) WithPage(p int) ViewState {
	v.Page = max(p, 1)
	return v
}

// WithSort changes the external sort and returns to page 1.
func (v ViewState) WithSort(k SortKey) ViewState {
	v.Sort = k
	v.Page = 1
	return v
}

// ReloadsAfterImport reports whether an import changes what this state shows.
func (v ViewState) ReloadsAfterImport() bool {
	return v.Source == SourceLocal || v.Source == SourceAll
}

// ListingEngine merges the local and external catalogs into one paginated listing.
//
// Each LoadPage takes a new generation and cancels the load it supersedes. A load that
// finishes after being superseded returns [shared.ErrStaleResponse] instead of a listing.
type ListingEngine struct {
	gateway services.CatalogGateway
	logger  *log.Logger
	metrics *services.Metrics

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewListingEngine creates an engine over gw. A nil logger discards output.
func NewListingEngine(gw services.CatalogGateway, logger *log.Logger) *ListingEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ListingEngine{gateway: gw, logger: shared.WithLogger(logger, "component", "listing")}
}

// WithMetrics counts bulk import outcomes on m.
func (e *ListingEngine) WithMetrics(m *services.Metrics) *ListingEngine {
	e.metrics = m
	return e
}

// Generation returns the generation of the most recent load.
func (e *ListingEngine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// IsCurrent reports whether gen is still the most recent load.
func (e *ListingEngine) IsCurrent(gen uint64) bool {
	return e.Generation() == gen
}

func (e *ListingEngine) begin(ctx context.Context) (context.Context, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	ctx, e.cancel = context.WithCancel(ctx)
	return ctx, e.generation
}

func (e *ListingEngine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation == gen && e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// LoadPage fetches and merges one page for state.
//
//   - Search mode (non-empty query): local matches, then external matches; one page only.
//   - All: local page and external popular page fetched concurrently; local first;
//     page count from the external catalog.
//   - Local: local page with genre and year filters; one page only.
//   - External: popular or top rated by state.Sort; page count from upstream.
func (e *ListingEngine) LoadPage(ctx context.Context, state ViewState) (*models.Listing, error) {
	state = state.Normalize()
	ctx, gen := e.begin(ctx)
	defer e.finish(gen)

	e.logger.Debug("loading listing", "source", state.Source, "query", state.Query, "page", state.Page, "generation", gen)

	var (
		items []models.ClassifiedRecord
		total int
		err   error
	)
	switch {
	case state.Searching():
		items, err = e.search(ctx, state)
		total = 1
	case state.Source == SourceAll:
		items, total, err = e.all(ctx, state)
	case state.Source == SourceLocal:
		items, err = e.local(ctx, models.MovieFilters{Page: state.Page, Genre: state.Genre, Year: state.Year})
		total = 1
	default:
		items, total, err = e.external(ctx, state)
	}

	if !e.IsCurrent(gen) {
		e.logger.Debug("dropping superseded listing", "generation", gen)
		return nil, fmt.Errorf("%w: generation %d", shared.ErrStaleResponse, gen)
	}
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []models.ClassifiedRecord{}
	}
	return &models.Listing{
		Items:      items,
		Pagination: models.NewPageDescriptor(state.Page, total),
		Generation: gen,
	}, nil
}

func (e *ListingEngine) local(ctx context.Context, f models.MovieFilters) ([]models.ClassifiedRecord, error) {
	movies, err := e.gateway.ListLocalMovies(ctx, f)
	if err != nil {
		return nil, err
	}
	return ClassifyBatch(movies, models.HintLocal), nil
}

func (e *ListingEngine) search(ctx context.Context, state ViewState) ([]models.ClassifiedRecord, error) {
	var items []models.ClassifiedRecord

	if state.Source != SourceExternal {
		local, err := e.local(ctx, models.MovieFilters{Search: state.Query, Page: state.Page})
		if err != nil {
			return nil, err
		}
		items = append(items, local...)
	}

	if state.Source != SourceLocal {
		page, err := e.gateway.SearchExternalCatalog(ctx, state.Query, state.Page)
		if err != nil {
			return nil, err
		}
		items = append(items, ClassifyBatch(page.Results, models.HintExternal)...)
	}
	return items, nil
}

// all issues the local and external requests together. The first failure cancels the other.
func (e *ListingEngine) all(ctx context.Context, state ViewState) ([]models.ClassifiedRecord, int, error) {
	var (
		local    []models.ClassifiedRecord
		external *models.ExternalPage
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		local, err = e.local(ctx, models.MovieFilters{Page: state.Page})
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		external, err = e.gateway.ListExternalPopular(ctx, state.Page)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, 0, err
	}

	items := append(local, ClassifyBatch(external.Results, models.HintExternal)...)
	return items, external.TotalPages, nil
}

func (e *ListingEngine) external(ctx context.Context, state ViewState) ([]models.ClassifiedRecord, int, error) {
	var (
		page *models.ExternalPage
		err  error
	)
	if state.Sort == SortTopRated {
		page, err = e.gateway.ListExternalTopRated(ctx, state.Page)
	} else {
		page, err = e.gateway.ListExternalPopular(ctx, state.Page)
	}
	if err != nil {
		return nil, 0, err
	}
	return ClassifyBatch(page.Results, models.HintExternal), page.TotalPages, nil
}

// Details fetches the external detail view data for tmdbID.
func (e *ListingEngine) Details(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("%w: tmdb id must be positive", shared.ErrInvalidArgument)
	}
	return e.gateway.GetExternalDetails(ctx, tmdbID)
}

// Import copies tmdbID into the local catalog. When state shows local rows the listing
// is reloaded and returned; otherwise the returned listing is nil.
func (e *ListingEngine) Import(ctx context.Context, state ViewState, tmdbID int) (*models.MovieRecord, *models.Listing, error) {
	if tmdbID <= 0 {
		return nil, nil, fmt.Errorf("%w: tmdb id must be positive", shared.ErrInvalidArgument)
	}

	movie, err := e.gateway.ImportExternalMovie(ctx, tmdbID)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Info("imported movie", "tmdb_id", tmdbID, "title", movie.Title)

	if !state.ReloadsAfterImport() {
		return movie, nil, nil
	}

	listing, err := e.LoadPage(ctx, state)
	if err != nil {
		return movie, nil, err
	}
	return movie, listing, nil
}
