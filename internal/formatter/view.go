package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/figx/internal/models"
)

// Display strings shared by every painter.
const (
	PlaceholderPoster = "https://via.placeholder.com/300x450?text=No+Poster"
	NotAvailable      = "N/A"
	EmptyMessage      = "No movies found"
	NoDescription     = "No description available."
	PreviousLabel     = "← Previous"
	NextLabel         = "Next →"
	ImportLabel       = "Import to Our Collection"
	ImportedMessage   = "Movie imported successfully!"
	ImportFailedFmt   = "Failed to import movie: %s"
)

// SourceLabel names a listing source for tabs and headers.
func SourceLabel(source string) string {
	switch source {
	case "local":
		return "Our Collection"
	case "external":
		return "TMDb"
	default:
		return "All Movies"
	}
}

// SortLabel names an external sort key.
func SortLabel(key string) string {
	if key == "top_rated" {
		return "Top Rated"
	}
	return "Popular"
}

// Action is what activating a card does.
type Action int

const (
	// ActionNavigate opens the local detail route.
	ActionNavigate Action = iota
	// ActionExternalDetail opens the external detail view, which offers an import.
	ActionExternalDetail
)

func (a Action) String() string {
	if a == ActionNavigate {
		return "navigate"
	}
	return "external_detail"
}

// CardView is one painted movie card.
type CardView struct {
	Title    string        `json:"title"`
	Year     string        `json:"year"`
	Rating   string        `json:"rating"`
	Poster   string        `json:"poster"`
	Badge    string        `json:"badge"`
	Origin   models.Origin `json:"-"`
	TargetID int           `json:"target_id"`
	Action   Action        `json:"-"`
	// Href is the local detail route for local cards and the external detail route otherwise.
	Href string `json:"href"`
}

// IsLocal reports whether the card belongs to the local catalog.
func (c CardView) IsLocal() bool { return c.Origin == models.OriginLocal }

// PaginationView holds the pagination controls. Show is false when there is only one page.
type PaginationView struct {
	Show         bool   `json:"show"`
	HasPrevious  bool   `json:"has_previous"`
	HasNext      bool   `json:"has_next"`
	PreviousPage int    `json:"previous_page,omitempty"`
	NextPage     int    `json:"next_page,omitempty"`
	Indicator    string `json:"indicator,omitempty"`
}

// GridView is a painted listing.
type GridView struct {
	Cards      []CardView     `json:"cards"`
	Empty      bool           `json:"empty"`
	Message    string         `json:"message,omitempty"`
	Pagination PaginationView `json:"pagination"`
	Generation uint64         `json:"-"`
}

// DetailView is a movie detail view. Only external details carry an import action.
type DetailView struct {
	ID          int    `json:"id,omitempty"`
	TMDBID      int    `json:"tmdb_id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Rating      string `json:"rating"`
	Runtime     string `json:"runtime"`
	Genres      string `json:"genres"`
	Language    string `json:"language"`
	Director    string `json:"director"`
	Actors      string `json:"actors"`
	Description string `json:"description"`
	Poster      string `json:"poster"`
	Backdrop    string `json:"backdrop,omitempty"`
	Trailer     string `json:"trailer,omitempty"`
	ImportLabel string `json:"import_label,omitempty"`
}

func orPlaceholder(poster, placeholder string) string {
	if poster != "" {
		return poster
	}
	return PosterFallback(placeholder)
}

// PosterFallback is the image shown when a poster is missing or fails to load.
func PosterFallback(placeholder string) string {
	if placeholder != "" {
		return placeholder
	}
	return PlaceholderPoster
}

// FormatYear returns the year or N/A.
func FormatYear(y models.Year) string {
	if !y.Known() {
		return NotAvailable
	}
	return fmt.Sprintf("%d", int(y))
}

// FormatCardRating prefers the local average over the external score. A present zero still counts.
func FormatCardRating(rec models.MovieRecord) string {
	switch {
	case rec.AverageRating != nil:
		return fmt.Sprintf("%.1f", *rec.AverageRating)
	case rec.TMDBRating != nil:
		return fmt.Sprintf("%.1f", *rec.TMDBRating)
	}
	return NotAvailable
}

// FormatExternalRating shows the external score; a zero score is treated as unrated.
func FormatExternalRating(rec models.MovieRecord) string {
	if rec.TMDBRating == nil || *rec.TMDBRating == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", *rec.TMDBRating)
}

// FormatRuntime returns "N minutes" or N/A.
func FormatRuntime(runtime *int) string {
	if runtime == nil || *runtime <= 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%d minutes", *runtime)
}

// Stars draws a 1-5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// LocalHref is the detail route of a local movie.
func LocalHref(id int) string { return fmt.Sprintf("/movies/%d/", id) }

// ExternalHref is the detail route of an external movie.
func ExternalHref(tmdbID int) string { return fmt.Sprintf("/tmdb/%d/", tmdbID) }

// RenderCard paints one classified record. The origin is taken as given.
func RenderCard(item models.ClassifiedRecord, placeholder string) CardView {
	rec := item.Record
	card := CardView{
		Title:    rec.Title,
		Year:     FormatYear(rec.ReleaseYear),
		Rating:   FormatCardRating(rec),
		Poster:   orPlaceholder(rec.Poster(), placeholder),
		Badge:    item.Origin.Badge(),
		Origin:   item.Origin,
		TargetID: item.TargetID,
	}
	if item.IsLocal() {
		card.Action = ActionNavigate
		card.Href = LocalHref(item.TargetID)
	} else {
		card.Action = ActionExternalDetail
		card.Href = ExternalHref(item.TargetID)
	}
	return card
}

// RenderPagination paints the controls for p. Nothing is shown for a single page.
func RenderPagination(p models.PageDescriptor) PaginationView {
	if p.TotalPages <= 1 {
		return PaginationView{}
	}

	view := PaginationView{
		Show:        true,
		HasPrevious: p.HasPrevious(),
		HasNext:     p.HasNext(),
		Indicator:   fmt.Sprintf("Page %d of %d", p.CurrentPage, p.TotalPages),
	}
	if view.HasPrevious {
		view.PreviousPage = p.CurrentPage - 1
	}
	if view.HasNext {
		view.NextPage = p.CurrentPage + 1
	}
	return view
}

// RenderListing paints l. An empty placeholder uses [PlaceholderPoster].
func RenderListing(l models.Listing, placeholder string) GridView {
	view := GridView{
		Cards:      make([]CardView, 0, len(l.Items)),
		Pagination: RenderPagination(l.Pagination),
		Generation: l.Generation,
	}
	for _, item := range l.Items {
		view.Cards = append(view.Cards, RenderCard(item, placeholder))
	}
	if l.Empty() {
		view.Empty = true
		view.Message = EmptyMessage
	}
	return view
}

// RenderExternalDetail paints the external detail view for rec.
func RenderExternalDetail(rec models.MovieRecord, placeholder string) DetailView {
	view := renderDetail(rec, placeholder)
	view.Rating = FormatExternalRating(rec)
	view.ImportLabel = ImportLabel
	return view
}

// RenderLocalDetail paints a local catalog movie. There is no import action and the
// rating follows the card rules.
func RenderLocalDetail(rec models.MovieRecord, placeholder string) DetailView {
	view := renderDetail(rec, placeholder)
	view.Rating = FormatCardRating(rec)
	if rec.ID != nil {
		view.ID = *rec.ID
	}
	return view
}

func renderDetail(rec models.MovieRecord, placeholder string) DetailView {
	view := DetailView{
		Title:       rec.Title,
		Year:        FormatYear(rec.ReleaseYear),
		Runtime:     FormatRuntime(rec.Runtime),
		Genres:      NotAvailable,
		Language:    NotAvailable,
		Director:    NotAvailable,
		Actors:      NotAvailable,
		Description: NoDescription,
		Poster:      orPlaceholder(rec.Poster(), placeholder),
		Backdrop:    rec.BackdropURL,
		Trailer:     rec.TrailerURL,
	}
	if rec.TMDBID != nil {
		view.TMDBID = *rec.TMDBID
	}
	if names := rec.Genres.Names(); len(names) > 0 {
		view.Genres = strings.Join(names, ", ")
	}
	if rec.Language != "" {
		view.Language = rec.Language
	}
	if rec.Director != "" {
		view.Director = rec.Director
	}
	if len(rec.Actors) > 0 {
		view.Actors = strings.Join(rec.Actors, ", ")
	}
	if strings.TrimSpace(rec.Description) != "" {
		view.Description = rec.Description
	}
	return view
}
