package tasks

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	tu "github.com/desertthunder/figx/internal/testing"
)

func externalPage(total int, movies ...models.MovieRecord) func(context.Context, int) (*models.ExternalPage, error) {
	return func(_ context.Context, page int) (*models.ExternalPage, error) {
		return &models.ExternalPage{Results: movies, Page: page, TotalPages: total}, nil
	}
}

func searchPage(total int, movies ...models.MovieRecord) func(context.Context, string, int) (*models.ExternalPage, error) {
	fetch := externalPage(total, movies...)
	return func(ctx context.Context, _ string, page int) (*models.ExternalPage, error) {
		return fetch(ctx, page)
	}
}

func localMovies(movies ...models.MovieRecord) func(context.Context, models.MovieFilters) ([]models.MovieRecord, error) {
	return func(context.Context, models.MovieFilters) ([]models.MovieRecord, error) {
		return movies, nil
	}
}

func titles(l *models.Listing) []string {
	out := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		out = append(out, item.Record.Title)
	}
	return out
}

func TestViewState(t *testing.T) {
	t.Run("Normalize", func(t *testing.T) {
		got := ViewState{Query: "  alien ", Page: -3}.Normalize()
		if got.Query != "alien" || got.Page != 1 || got.Sort != SortPopular {
			t.Errorf("unexpected state %+v", got)
		}
	})

	t.Run("Changes Reset Page", func(t *testing.T) {
		s := ViewState{Page: 4}
		if s.WithSource(SourceLocal).Page != 1 || s.WithQuery("x").Page != 1 || s.WithSort(SortTopRated).Page != 1 {
			t.Error("expected page 1 after a source, query or sort change")
		}
		if s.WithPage(0).Page != 1 {
			t.Error("expected page clamped to 1")
		}
	})

	t.Run("ReloadsAfterImport", func(t *testing.T) {
		tests := []struct {
			source Source
			want   bool
		}{
			{SourceAll, true},
			{SourceLocal, true},
			{SourceExternal, false},
		}
		for _, tt := range tests {
			if got := (ViewState{Source: tt.source}).ReloadsAfterImport(); got != tt.want {
				t.Errorf("%s: expected %v, got %v", tt.source, tt.want, got)
			}
		}
	})

	t.Run("Parse", func(t *testing.T) {
		if s, err := ParseSource("TMDB"); err != nil || s != SourceExternal {
			t.Errorf("ParseSource() = %v, %v", s, err)
		}
		if _, err := ParseSource("both"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if k, err := ParseSortKey("top-rated"); err != nil || k != SortTopRated {
			t.Errorf("ParseSortKey() = %v, %v", k, err)
		}
		if SourceExternal.Next() != SourceAll || SortTopRated.Toggle() != SortPopular {
			t.Error("unexpected cycle")
		}
	})
}

func TestLoadPage(t *testing.T) {
	ctx := context.Background()

	t.Run("All Merges Local Before External", func(t *testing.T) {
		gw := &tu.MockGateway{
			ListLocalFn: localMovies(tu.LocalMovie(5, "A")),
			PopularFn:   externalPage(3, tu.ExternalMovie(99, "B")),
		}

		listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Source: SourceAll, Page: 1})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}

		if got := titles(listing); !slices.Equal(got, []string{"A", "B"}) {
			t.Fatalf("expected [A B], got %v", got)
		}
		if !listing.Items[0].IsLocal() || listing.Items[1].IsLocal() {
			t.Error("expected A local and B external")
		}
		if listing.Items[1].TargetID != 99 {
			t.Errorf("expected external target 99, got %d", listing.Items[1].TargetID)
		}
		if listing.Pagination != (models.PageDescriptor{CurrentPage: 1, TotalPages: 3}) {
			t.Errorf("unexpected pagination %+v", listing.Pagination)
		}
	})

	t.Run("All Fetches Both Sources Concurrently", func(t *testing.T) {
		externalStarted := make(chan struct{})
		gw := &tu.MockGateway{
			ListLocalFn: func(ctx context.Context, _ models.MovieFilters) ([]models.MovieRecord, error) {
				select {
				case <-externalStarted:
					return []models.MovieRecord{tu.LocalMovie(1, "L")}, nil
				case <-time.After(2 * time.Second):
					return nil, errors.New("external request was not in flight")
				}
			},
			PopularFn: func(_ context.Context, page int) (*models.ExternalPage, error) {
				close(externalStarted)
				return &models.ExternalPage{Results: []models.MovieRecord{tu.ExternalMovie(2, "E")}, TotalPages: 1}, nil
			},
		}

		listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		if got := titles(listing); !slices.Equal(got, []string{"L", "E"}) {
			t.Errorf("expected [L E], got %v", got)
		}
	})

	t.Run("All Fails When Either Source Fails", func(t *testing.T) {
		gw := &tu.MockGateway{
			ListLocalFn: localMovies(tu.LocalMovie(1, "L")),
			PopularFn: func(context.Context, int) (*models.ExternalPage, error) {
				return nil, &services.RequestFailed{Kind: services.KindUnauthorized, Status: http.StatusUnauthorized}
			},
		}

		_, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{})
		if services.DisplayMessage(err) != services.MsgUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("All Clamps Missing External Total", func(t *testing.T) {
		gw := &tu.MockGateway{PopularFn: externalPage(0)}
		listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Page: 2})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		if listing.Pagination.TotalPages != 1 || listing.Pagination.CurrentPage != 2 {
			t.Errorf("unexpected pagination %+v", listing.Pagination)
		}
		if !listing.Empty() {
			t.Error("expected empty listing")
		}
	})

	t.Run("Local Is Always One Page", func(t *testing.T) {
		var got models.MovieFilters
		gw := &tu.MockGateway{
			ListLocalFn: func(_ context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
				got = f
				return []models.MovieRecord{tu.LocalMovie(1, "L")}, nil
			},
		}

		for _, page := range []int{1, 2, 7} {
			listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Source: SourceLocal, Page: page, Genre: "Drama", Year: 1999})
			if err != nil {
				t.Fatalf("LoadPage() error = %v", err)
			}
			if listing.Pagination.TotalPages != 1 {
				t.Errorf("page %d: expected 1 total page, got %d", page, listing.Pagination.TotalPages)
			}
		}
		if got.Genre != "Drama" || got.Year != 1999 || got.Page != 7 {
			t.Errorf("unexpected filters %+v", got)
		}
		if slices.Contains(gw.Calls(), "popular") {
			t.Error("local source must not touch the external catalog")
		}
	})

	t.Run("External Uses Sort And Upstream Total", func(t *testing.T) {
		gw := &tu.MockGateway{
			PopularFn:  externalPage(10, tu.ExternalMovie(1, "Popular")),
			TopRatedFn: externalPage(20, tu.ExternalMovie(2, "Top")),
		}
		engine := NewListingEngine(gw, nil)

		popular, err := engine.LoadPage(ctx, ViewState{Source: SourceExternal})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		top, err := engine.LoadPage(ctx, ViewState{Source: SourceExternal, Sort: SortTopRated})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}

		if titles(popular)[0] != "Popular" || popular.Pagination.TotalPages != 10 {
			t.Errorf("unexpected popular listing %+v", popular)
		}
		if titles(top)[0] != "Top" || top.Pagination.TotalPages != 20 {
			t.Errorf("unexpected top rated listing %+v", top)
		}
		if gw.Calls()[0] != "popular" || gw.Calls()[1] != "top_rated" {
			t.Errorf("unexpected calls %v", gw.Calls())
		}
	})

	t.Run("Search Is Always One Page", func(t *testing.T) {
		gw := &tu.MockGateway{
			ListLocalFn: localMovies(tu.LocalMovie(5, "Alien")),
			SearchFn:    searchPage(40, tu.ExternalMovie(348, "Alien"), tu.ExternalMovie(679, "Aliens")),
		}
		engine := NewListingEngine(gw, nil)

		for _, source := range []Source{SourceAll, SourceLocal, SourceExternal} {
			for _, page := range []int{0, 1, 3} {
				listing, err := engine.LoadPage(ctx, ViewState{Source: source, Query: "alien", Page: page})
				if err != nil {
					t.Fatalf("LoadPage() error = %v", err)
				}
				if listing.Pagination.TotalPages != 1 {
					t.Errorf("%s page %d: expected 1 total page, got %d", source, page, listing.Pagination.TotalPages)
				}
			}
		}
	})

	t.Run("Search Fans Out By Source", func(t *testing.T) {
		tests := []struct {
			source    Source
			wantCalls []string
			wantCount int
		}{
			{SourceAll, []string{"local", "search"}, 3},
			{SourceLocal, []string{"local"}, 1},
			{SourceExternal, []string{"search"}, 2},
		}

		for _, tt := range tests {
			t.Run(tt.source.String(), func(t *testing.T) {
				gw := &tu.MockGateway{
					ListLocalFn: func(_ context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
						if f.Search != "alien" {
							t.Errorf("expected search filter, got %+v", f)
						}
						return []models.MovieRecord{tu.LocalMovie(5, "Alien")}, nil
					},
					SearchFn: searchPage(1, tu.ExternalMovie(348, "Alien"), tu.ExternalMovie(679, "Aliens")),
				}

				listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Source: tt.source, Query: "alien"})
				if err != nil {
					t.Fatalf("LoadPage() error = %v", err)
				}
				if !slices.Equal(gw.Calls(), tt.wantCalls) {
					t.Errorf("expected calls %v, got %v", tt.wantCalls, gw.Calls())
				}
				if len(listing.Items) != tt.wantCount {
					t.Errorf("expected %d items, got %d", tt.wantCount, len(listing.Items))
				}
				if tt.source == SourceAll && !listing.Items[0].IsLocal() {
					t.Error("expected local matches first")
				}
			})
		}
	})

	t.Run("Hint From Backend Row Is Overridden", func(t *testing.T) {
		imported := tu.LocalMovie(8, "Imported")
		imported.SourceHint = models.HintExternal
		imported.TMDBID = models.IntPtr(99)
		gw := &tu.MockGateway{ListLocalFn: localMovies(imported)}

		listing, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Source: SourceLocal})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		if !listing.Items[0].IsLocal() || listing.Items[0].TargetID != 8 {
			t.Errorf("expected local row 8, got %+v", listing.Items[0])
		}
	})
}

func TestLoadPageGenerations(t *testing.T) {
	t.Run("Superseded Load Is Cancelled", func(t *testing.T) {
		entered := make(chan struct{})
		var calls atomic.Int32
		gw := &tu.MockGateway{
			ListLocalFn: func(ctx context.Context, _ models.MovieFilters) ([]models.MovieRecord, error) {
				if calls.Add(1) == 1 {
					close(entered)
					<-ctx.Done()
					return nil, ctx.Err()
				}
				return []models.MovieRecord{tu.LocalMovie(2, "Fresh")}, nil
			},
		}
		engine := NewListingEngine(gw, nil)

		errCh := make(chan error, 1)
		go func() {
			_, err := engine.LoadPage(context.Background(), ViewState{Source: SourceLocal})
			errCh <- err
		}()
		<-entered

		listing, err := engine.LoadPage(context.Background(), ViewState{Source: SourceLocal})
		if err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		if listing.Generation != 2 || titles(listing)[0] != "Fresh" {
			t.Errorf("unexpected listing %+v", listing)
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, shared.ErrStaleResponse) {
				t.Errorf("expected ErrStaleResponse, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("superseded load never returned")
		}
	})

	t.Run("Late Success Is Dropped", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		gw := &tu.MockGateway{
			PopularFn: func(context.Context, int) (*models.ExternalPage, error) {
				if calls.Add(1) == 1 {
					close(entered)
					<-release
					return &models.ExternalPage{Results: []models.MovieRecord{tu.ExternalMovie(1, "Stale")}}, nil
				}
				return &models.ExternalPage{Results: []models.MovieRecord{tu.ExternalMovie(2, "Fresh")}}, nil
			},
		}
		engine := NewListingEngine(gw, nil)

		errCh := make(chan error, 1)
		go func() {
			_, err := engine.LoadPage(context.Background(), ViewState{Source: SourceExternal})
			errCh <- err
		}()
		<-entered

		if _, err := engine.LoadPage(context.Background(), ViewState{Source: SourceExternal, Page: 2}); err != nil {
			t.Fatalf("LoadPage() error = %v", err)
		}
		close(release)

		if err := <-errCh; !errors.Is(err, shared.ErrStaleResponse) {
			t.Errorf("expected ErrStaleResponse, got %v", err)
		}
		if !engine.IsCurrent(2) {
			t.Errorf("expected generation 2 to stay current, got %d", engine.Generation())
		}
	})

	t.Run("Caller Cancellation Is Not Stale", func(t *testing.T) {
		gw := &tu.MockGateway{
			ListLocalFn: func(ctx context.Context, _ models.MovieFilters) ([]models.MovieRecord, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewListingEngine(gw, nil).LoadPage(ctx, ViewState{Source: SourceLocal})
		if !errors.Is(err, context.Canceled) || errors.Is(err, shared.ErrStaleResponse) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("Imported Movie Appears As Local", func(t *testing.T) {
		fb := tu.NewFakeBackend(t)
		fb.AddUser("admin", "secret", models.RoleAdmin)
		fb.AddLocal(tu.LocalMovie(5, "A"))
		fb.AddExternal(tu.ExternalMovie(99, "B"))

		svc, err := services.NewBackendService(services.BackendOptions{BaseURL: fb.URL()})
		if err != nil {
			t.Fatalf("NewBackendService() error = %v", err)
		}
		if _, err := svc.Login(ctx, models.Credentials{Username: "admin", Password: "secret"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		engine := NewListingEngine(svc, nil)
		movie, listing, err := engine.Import(ctx, ViewState{Source: SourceLocal}, 99)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if movie.Title != "B" {
			t.Errorf("unexpected movie %+v", movie)
		}
		if listing == nil {
			t.Fatal("expected the listing to reload")
		}

		var found *models.ClassifiedRecord
		for i := range listing.Items {
			rec := listing.Items[i].Record
			if rec.TMDBID != nil && *rec.TMDBID == 99 {
				found = &listing.Items[i]
			}
		}
		if found == nil {
			t.Fatalf("expected tmdb 99 in local listing, got %v", titles(listing))
		}
		if !found.IsLocal() || found.TargetID >= LocalIDCutoff || found.TargetID == 99 {
			t.Errorf("expected local classification with a local id, got %+v", found)
		}
	})

	t.Run("External Source Does Not Reload", func(t *testing.T) {
		gw := &tu.MockGateway{}
		_, listing, err := NewListingEngine(gw, nil).Import(ctx, ViewState{Source: SourceExternal}, 7)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if listing != nil {
			t.Error("expected no reload")
		}
		if !slices.Equal(gw.Calls(), []string{"import"}) {
			t.Errorf("unexpected calls %v", gw.Calls())
		}
	})

	t.Run("Failure Skips Reload", func(t *testing.T) {
		gw := &tu.MockGateway{
			ImportFn: func(context.Context, int) (*models.MovieRecord, error) {
				return nil, &services.RequestFailed{Kind: services.KindForbidden, Status: http.StatusForbidden}
			},
		}
		_, _, err := NewListingEngine(gw, nil).Import(ctx, ViewState{}, 7)
		if !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if len(gw.Calls()) != 1 {
			t.Errorf("unexpected calls %v", gw.Calls())
		}
	})

	t.Run("Invalid Id", func(t *testing.T) {
		if _, _, err := NewListingEngine(&tu.MockGateway{}, nil).Import(ctx, ViewState{}, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := NewListingEngine(&tu.MockGateway{}, nil).Details(ctx, -1); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
