package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/figx/internal/formatter"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/server"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// MovieReader fetches one local catalog movie.
type MovieReader interface {
	GetMovie(ctx context.Context, id int) (*models.MovieRecord, error)
}

// Options configures an [App].
type Options struct {
	Gateway     services.CatalogGateway
	Movies      MovieReader
	Placeholder string
	Logger      *log.Logger
	// Metrics is shared with the gateway so import outcomes land on /metrics.
	Metrics *services.Metrics
	// Registry backs /metrics and receives the preview server collectors. Nil creates one.
	Registry *prometheus.Registry
}

// App renders the catalog preview.
type App struct {
	gateway     services.CatalogGateway
	movies      MovieReader
	placeholder string
	logger      *log.Logger
	metrics     *services.Metrics
	registry    *prometheus.Registry
	tmpl        *template.Template
}

// New parses the embedded templates and builds an [App].
func New(opts Options) (*App, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("%w: web preview needs a catalog gateway", shared.ErrInvalidConfig)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	movies := opts.Movies
	if movies == nil {
		if mr, ok := opts.Gateway.(MovieReader); ok {
			movies = mr
		}
	}

	return &App{
		gateway:     opts.Gateway,
		movies:      movies,
		placeholder: opts.Placeholder,
		logger:      shared.WithLogger(logger, "component", "web"),
		metrics:     opts.Metrics,
		registry:    registry,
		tmpl:        tmpl,
	}, nil
}

// Handler builds the router with the standard middleware stack.
func (a *App) Handler() http.Handler {
	r := server.NewRouter()
	r.Use(
		server.RequestID,
		server.Recoverer(a.logger),
		server.Logging(a.logger),
		server.Instrument(server.NewHTTPMetrics(a.registry)),
	)
	a.Register(r)
	r.NotFound(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		a.fail(w, http.StatusNotFound, fmt.Errorf("%w: %s", shared.ErrNotFound, req.URL.Path))
	}))
	return r
}

// Register mounts the preview routes on r.
func (a *App) Register(r server.Router) {
	r.Handle(http.MethodGet, "/", http.HandlerFunc(a.listing))
	r.Handle(http.MethodGet, "/movies/{id:[0-9]+}/", http.HandlerFunc(a.localDetail))
	r.Handle(http.MethodGet, "/tmdb/{id:[0-9]+}/", http.HandlerFunc(a.externalDetail))
	r.Handle(http.MethodPost, "/tmdb/{id:[0-9]+}/import/", http.HandlerFunc(a.importMovie))
	r.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
}

// engine returns a per-request listing engine.
func (a *App) engine() *tasks.ListingEngine {
	return tasks.NewListingEngine(a.gateway, a.logger).WithMetrics(a.metrics)
}

type tab struct {
	Label  string
	Href   string
	Active bool
}

type listingPage struct {
	Title         string
	Source        string
	Query         string
	Tabs          []tab
	SortLabel     string
	SortHref      string
	Flash         string
	Fallback      string
	Grid          formatter.GridView
	PreviousHref  string
	NextHref      string
	PreviousLabel string
	NextLabel     string
}

type hiddenField struct {
	Name  string
	Value string
}

type detailPage struct {
	Title        string
	Fallback     string
	Movie        formatter.DetailView
	ImportAction string
	// State is the listing the detail was opened from. The import form posts it back.
	State    []hiddenField
	BackHref string
}

type errorPage struct {
	Title   string
	Message string
}

func (a *App) listing(w http.ResponseWriter, r *http.Request) {
	state, err := StateFromQuery(r.URL.Query())
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}

	listing, err := a.engine().LoadPage(r.Context(), state)
	if err != nil {
		a.fail(w, statusFor(err), err)
		return
	}

	a.render(w, http.StatusOK, "listing", a.listingPage(state, *listing, ""))
}

func (a *App) listingPage(state tasks.ViewState, listing models.Listing, flash string) listingPage {
	state = state.Normalize()
	page := listingPage{
		Title:         formatter.SourceLabel(state.Source.String()),
		Source:        state.Source.String(),
		Query:         state.Query,
		Flash:         flash,
		Fallback:      formatter.PosterFallback(a.placeholder),
		Grid:          formatter.RenderListing(listing, a.placeholder),
		PreviousHref:  ListingHref(state.WithPage(state.Page - 1)),
		NextHref:      ListingHref(state.WithPage(state.Page + 1)),
		PreviousLabel: formatter.PreviousLabel,
		NextLabel:     formatter.NextLabel,
	}

	for i, card := range page.Grid.Cards {
		if !card.IsLocal() {
			page.Grid.Cards[i].Href = ExternalDetailHref(card.TargetID, state)
		}
	}

	for _, src := range []tasks.Source{tasks.SourceAll, tasks.SourceLocal, tasks.SourceExternal} {
		page.Tabs = append(page.Tabs, tab{
			Label:  formatter.SourceLabel(src.String()),
			Href:   ListingHref(state.WithSource(src)),
			Active: src == state.Source,
		})
	}

	if state.Source == tasks.SourceExternal && !state.Searching() {
		page.SortLabel = formatter.SortLabel(string(state.Sort))
		page.SortHref = ListingHref(state.WithSort(state.Sort.Toggle()))
	}
	return page
}

func (a *App) localDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	if a.movies == nil {
		a.fail(w, http.StatusNotFound, fmt.Errorf("%w: local movie detail unavailable", shared.ErrNotFound))
		return
	}

	movie, err := a.movies.GetMovie(r.Context(), id)
	if err != nil {
		a.fail(w, statusFor(err), err)
		return
	}

	view := formatter.RenderLocalDetail(*movie, a.placeholder)
	a.render(w, http.StatusOK, "detail", detailPage{
		Title:    view.Title,
		Fallback: formatter.PosterFallback(a.placeholder),
		Movie:    view,
		BackHref: "/",
	})
}

func (a *App) externalDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}

	// A detail link with a stale or hand-edited query still opens; it just returns to the default listing.
	state, err := StateFromQuery(r.URL.Query())
	if err != nil {
		state = tasks.ViewState{}.Normalize()
	}

	movie, err := a.engine().Details(r.Context(), id)
	if err != nil {
		a.fail(w, statusFor(err), err)
		return
	}

	view := formatter.RenderExternalDetail(*movie, a.placeholder)
	if view.TMDBID == 0 {
		view.TMDBID = id
	}
	a.render(w, http.StatusOK, "detail", detailPage{
		Title:        view.Title,
		Fallback:     formatter.PosterFallback(a.placeholder),
		Movie:        view,
		ImportAction: fmt.Sprintf("/tmdb/%d/import/", view.TMDBID),
		State:        hiddenFields(state),
		BackHref:     ListingHref(state),
	})
}

func (a *App) importMovie(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	state, err := StateFromQuery(r.PostForm)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}

	movie, listing, err := a.engine().Import(r.Context(), state, id)
	if a.metrics != nil {
		a.metrics.ObserveImport(importOutcome(movie, err))
	}
	if err != nil && movie == nil {
		a.fail(w, statusFor(err), fmt.Errorf(formatter.ImportFailedFmt, services.DisplayMessage(err)))
		return
	}
	if err != nil {
		a.logger.Warn("reload after import failed", "tmdb_id", id, "err", err)
	}

	if listing != nil {
		a.render(w, http.StatusOK, "listing", a.listingPage(state, *listing, formatter.ImportedMessage))
		return
	}

	// External views keep their page. A Local or All view whose reload failed goes to the new movie.
	target := ListingHref(state)
	if state.ReloadsAfterImport() {
		target = formatter.ExternalHref(id)
		if movie.ID != nil {
			target = formatter.LocalHref(*movie.ID)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// importOutcome is decided by the import call alone. A returned movie means the import
// landed even when the reload after it failed.
func importOutcome(movie *models.MovieRecord, err error) string {
	switch {
	case movie != nil, err == nil:
		return string(models.ImportSucceeded)
	case errors.Is(err, shared.ErrAlreadyImported):
		return string(models.ImportSkipped)
	default:
		return string(models.ImportFailed)
	}
}

func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.tmpl.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("failed to render template", "template", name, "err", err)
	}
}

func (a *App) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "status", status, "err", err)
	} else {
		a.logger.Debug("request rejected", "status", status, "err", err)
	}

	message := services.DisplayMessage(err)
	var rf *services.RequestFailed
	if !errors.As(err, &rf) && (errors.Is(err, shared.ErrInvalidArgument) || errors.Is(err, shared.ErrInvalidInput) || message == services.MsgUnexpected) {
		message = err.Error()
	}
	a.render(w, status, "error", errorPage{Title: http.StatusText(status), Message: message})
}

// statusFor picks the preview response status for a gateway failure.
func statusFor(err error) int {
	var rf *services.RequestFailed
	if errors.As(err, &rf) {
		if rf.Status >= 400 && rf.Status < 500 {
			return rf.Status
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func pathID(r *http.Request) (int, error) {
	raw := server.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// StateFromQuery reads a [tasks.ViewState] from listing query parameters.
// A missing or malformed page means page 1.
func StateFromQuery(q url.Values) (tasks.ViewState, error) {
	source, err := tasks.ParseSource(q.Get("source"))
	if err != nil {
		return tasks.ViewState{}, err
	}
	sort, err := tasks.ParseSortKey(q.Get("sort"))
	if err != nil {
		return tasks.ViewState{}, err
	}

	state := tasks.ViewState{
		Source: source,
		Query:  q.Get("q"),
		Sort:   sort,
		Genre:  q.Get("genre"),
	}
	state.Page, _ = strconv.Atoi(q.Get("page"))
	if y := q.Get("year"); y != "" {
		if state.Year, err = strconv.Atoi(y); err != nil {
			return tasks.ViewState{}, fmt.Errorf("%w: bad year %q", shared.ErrInvalidArgument, y)
		}
	}
	return state.Normalize(), nil
}

// ListingHref encodes state as a listing URL. Defaults are left out.
func ListingHref(state tasks.ViewState) string {
	q := stateValues(state)
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// ExternalDetailHref links an external card to its detail page, carrying the listing
// state so an import started there returns to the same listing.
func ExternalDetailHref(tmdbID int, state tasks.ViewState) string {
	href := formatter.ExternalHref(tmdbID)
	if q := stateValues(state); len(q) > 0 {
		href += "?" + q.Encode()
	}
	return href
}

func hiddenFields(state tasks.ViewState) []hiddenField {
	q := stateValues(state)
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make([]hiddenField, 0, len(names))
	for _, name := range names {
		fields = append(fields, hiddenField{Name: name, Value: q.Get(name)})
	}
	return fields
}

func stateValues(state tasks.ViewState) url.Values {
	state = state.Normalize()
	q := url.Values{}
	if state.Source != tasks.SourceAll {
		q.Set("source", state.Source.String())
	}
	if state.Query != "" {
		q.Set("q", state.Query)
	}
	if state.Page > 1 {
		q.Set("page", strconv.Itoa(state.Page))
	}
	if state.Sort != tasks.SortPopular {
		q.Set("sort", string(state.Sort))
	}
	if state.Genre != "" {
		q.Set("genre", state.Genre)
	}
	if state.Year > 0 {
		q.Set("year", strconv.Itoa(state.Year))
	}
	return q
}
