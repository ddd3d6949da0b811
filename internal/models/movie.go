package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source hints carried by backend records. The aggregator overwrites the hint
// on every fetched batch with either [HintLocal] or [HintExternal].
const (
	HintLocal    = "local"
	HintAdmin    = "admin"
	HintExternal = "tmdb"
)

// Year is a release year. The local catalog sends an integer, the external catalog
// sends a four character string, and either may send null. Zero means unknown, as
// does a string that is not a number.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		if len(s) > 4 {
			s = s[:4]
		}
		// Placeholders like "TBA" mean unknown; one odd row must not sink the whole page.
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			n = 0
		}
		*y = Year(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid release year %s", data)
	}
	*y = Year(n)
	return nil
}

func (y Year) MarshalJSON() ([]byte, error) {
	if y == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(y))), nil
}

// Known reports whether the year is present.
func (y Year) Known() bool { return y > 0 }

// Genre is a catalog genre.
type Genre struct {
	ID     int    `json:"id,omitempty"`
	Name   string `json:"name"`
	TMDBID *int   `json:"tmdb_id,omitempty"`
}

// GenreList decodes either a list of genre objects (local rows) or a list of
// genre names (external detail payloads).
type GenreList []Genre

func (g *GenreList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(GenreList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				return err
			}
			out = append(out, Genre{Name: name})
			continue
		}

		var genre Genre
		if err := json.Unmarshal(item, &genre); err != nil {
			return err
		}
		out = append(out, genre)
	}
	*g = out
	return nil
}

// Names returns the genre names in order.
func (g GenreList) Names() []string {
	names := make([]string, 0, len(g))
	for _, genre := range g {
		names = append(names, genre.Name)
	}
	return names
}

// MovieRecord is the wire shape shared by the local and external catalogs.
// Which fields are populated depends on the origin.
type MovieRecord struct {
	ID             *int      `json:"id,omitempty"`
	TMDBID         *int      `json:"tmdb_id,omitempty"`
	SourceHint     string    `json:"source,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ReleaseYear    Year      `json:"release_year"`
	Runtime        *int      `json:"runtime,omitempty"`
	PosterImageURL string    `json:"poster_image_url,omitempty"`
	PosterURL      string    `json:"poster_url,omitempty"`
	BackdropURL    string    `json:"backdrop_url,omitempty"`
	TrailerURL     string    `json:"trailer_url,omitempty"`
	Genres         GenreList `json:"genres,omitempty"`
	GenreIDs       []int     `json:"genre_ids,omitempty"`
	Actors         []string  `json:"actors,omitempty"`
	Director       string    `json:"director,omitempty"`
	Language       string    `json:"language,omitempty"`
	Homepage       string    `json:"homepage,omitempty"`
	TMDBRating     *float64  `json:"tmdb_rating,omitempty"`
	TMDBVoteCount  *int      `json:"tmdb_vote_count,omitempty"`
	AverageRating  *float64  `json:"average_rating,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// Poster picks the uploaded poster, then the external poster url.
// Empty means the caller should fall back to a placeholder.
func (m MovieRecord) Poster() string {
	if m.PosterImageURL != "" {
		return m.PosterImageURL
	}
	return m.PosterURL
}

// ExternalPage is one page of an external catalog listing.
type ExternalPage struct {
	Results      []MovieRecord `json:"results"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieFilters are the query parameters accepted by the local listing.
type MovieFilters struct {
	Search string
	Genre  string
	Sort   string
	Year   int
	Page   int
}

// MovieInput is the admin form for creating or updating a local movie.
// PosterPath is a local file uploaded as the poster on create.
type MovieInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ReleaseYear int      `json:"release_year,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	TrailerURL  string   `json:"trailer_url,omitempty"`
	GenreIDs    []int    `json:"genre_ids,omitempty"`
	Actors      []string `json:"actors,omitempty"`
	Director    string   `json:"director,omitempty"`
	Language    string   `json:"language,omitempty"`
	PosterPath  string   `json:"-"`
}

// Validate checks the fields the backend requires.
func (in MovieInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if in.ReleaseYear < 0 || in.Runtime < 0 {
		return fmt.Errorf("release year and runtime must not be negative")
	}
	return nil
}

// WatchEntry is one row of the user's watch history.
type WatchEntry struct {
	ID        int         `json:"id"`
	Movie     MovieRecord `json:"movie"`
	WatchedAt time.Time   `json:"watched_at"`
}

// DiscoverFilters narrow an external discover query.
type DiscoverFilters struct {
	GenreIDs  []int
	Year      int
	MinRating float64
	Page      int
}

// GenreSync is the result of pulling genres from the external catalog.
type GenreSync struct {
	Message     string `json:"message"`
	TotalGenres int    `json:"total_genres"`
}

// WatchHistoryResult is returned when adding to the watch history.
type WatchHistoryResult struct {
	Message string     `json:"message"`
	Data    WatchEntry `json:"data"`
}
