package formatter

import (
	"testing"

	"github.com/desertthunder/figx/internal/models"
)

func local(id int, rec models.MovieRecord) models.ClassifiedRecord {
	rec.ID = models.IntPtr(id)
	return models.ClassifiedRecord{Origin: models.OriginLocal, TargetID: id, Record: rec}
}

func external(tmdbID int, rec models.MovieRecord) models.ClassifiedRecord {
	rec.TMDBID = models.IntPtr(tmdbID)
	return models.ClassifiedRecord{Origin: models.OriginExternal, TargetID: tmdbID, Record: rec}
}

func TestRenderCard(t *testing.T) {
	t.Run("Poster Fallbacks", func(t *testing.T) {
		tests := []struct {
			name        string
			record      models.MovieRecord
			placeholder string
			want        string
		}{
			{"Uploaded Poster Wins", models.MovieRecord{PosterImageURL: "/media/a.jpg", PosterURL: "https://img/b.jpg"}, "", "/media/a.jpg"},
			{"External Poster", models.MovieRecord{PosterURL: "https://img/b.jpg"}, "", "https://img/b.jpg"},
			{"Default Placeholder", models.MovieRecord{}, "", PlaceholderPoster},
			{"Configured Placeholder", models.MovieRecord{}, "/static/none.png", "/static/none.png"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := RenderCard(local(1, tt.record), tt.placeholder).Poster; got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("Rating Prefers Local Average", func(t *testing.T) {
		tests := []struct {
			name   string
			record models.MovieRecord
			want   string
		}{
			{"Both Present", models.MovieRecord{AverageRating: models.FloatPtr(4.3), TMDBRating: models.FloatPtr(7.9)}, "4.3"},
			{"Zero Average Still Wins", models.MovieRecord{AverageRating: models.FloatPtr(0), TMDBRating: models.FloatPtr(7.9)}, "0.0"},
			{"External Only", models.MovieRecord{TMDBRating: models.FloatPtr(7.86)}, "7.9"},
			{"Neither", models.MovieRecord{}, NotAvailable},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := FormatCardRating(tt.record); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("Local Card", func(t *testing.T) {
		card := RenderCard(local(5, models.MovieRecord{Title: "A", ReleaseYear: 1979}), "")
		if card.Badge != "Our Collection" || card.Action != ActionNavigate || card.Href != "/movies/5/" {
			t.Errorf("unexpected card %+v", card)
		}
		if card.Year != "1979" {
			t.Errorf("expected year 1979, got %q", card.Year)
		}
	})

	t.Run("External Card", func(t *testing.T) {
		card := RenderCard(external(99, models.MovieRecord{Title: "B"}), "")
		if card.Badge != "TMDb" || card.Action != ActionExternalDetail || card.Href != "/tmdb/99/" {
			t.Errorf("unexpected card %+v", card)
		}
		if card.Year != NotAvailable {
			t.Errorf("expected N/A year, got %q", card.Year)
		}
	})

	t.Run("Origin Is Not Re-derived", func(t *testing.T) {
		item := models.ClassifiedRecord{
			Origin:   models.OriginExternal,
			TargetID: 42,
			Record:   models.MovieRecord{ID: models.IntPtr(3), SourceHint: models.HintLocal},
		}
		if RenderCard(item, "").IsLocal() {
			t.Error("renderer must trust the classification")
		}
	})
}

func TestRenderPagination(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		wantShow bool
		wantPrev bool
		wantNext bool
	}{
		{"Single Page Hidden", 1, 1, false, false, false},
		{"Zero Total Hidden", 3, 0, false, false, false},
		{"First Page", 1, 3, true, false, true},
		{"Middle Page", 2, 3, true, true, true},
		{"Last Page", 3, 3, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderPagination(models.PageDescriptor{CurrentPage: tt.current, TotalPages: tt.total})
			if got.Show != tt.wantShow || got.HasPrevious != tt.wantPrev || got.HasNext != tt.wantNext {
				t.Errorf("unexpected pagination %+v", got)
			}
		})
	}

	t.Run("Indicator And Targets", func(t *testing.T) {
		got := RenderPagination(models.NewPageDescriptor(2, 5))
		if got.Indicator != "Page 2 of 5" || got.PreviousPage != 1 || got.NextPage != 3 {
			t.Errorf("unexpected pagination %+v", got)
		}
	})
}

func TestRenderListing(t *testing.T) {
	t.Run("Keeps Order", func(t *testing.T) {
		listing := models.Listing{
			Items: []models.ClassifiedRecord{
				local(5, models.MovieRecord{Title: "A"}),
				external(99, models.MovieRecord{Title: "B"}),
			},
			Pagination: models.NewPageDescriptor(1, 3),
			Generation: 7,
		}

		grid := RenderListing(listing, "")
		if len(grid.Cards) != 2 || grid.Cards[0].Title != "A" || grid.Cards[1].Title != "B" {
			t.Fatalf("unexpected cards %+v", grid.Cards)
		}
		if grid.Empty || grid.Message != "" {
			t.Error("expected a non-empty grid")
		}
		if !grid.Pagination.Show || grid.Generation != 7 {
			t.Errorf("unexpected grid %+v", grid)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		grid := RenderListing(models.Listing{Pagination: models.NewPageDescriptor(1, 1)}, "")
		if !grid.Empty || grid.Message != "No movies found" {
			t.Errorf("unexpected grid %+v", grid)
		}
		if grid.Pagination.Show {
			t.Error("expected no pagination")
		}
	})
}

func TestRenderExternalDetail(t *testing.T) {
	t.Run("Full Record", func(t *testing.T) {
		rec := models.MovieRecord{
			TMDBID:      models.IntPtr(603),
			Title:       "The Matrix",
			ReleaseYear: 1999,
			Runtime:     models.IntPtr(136),
			Genres:      models.GenreList{{Name: "Action"}, {Name: "Science Fiction"}},
			Language:    "en",
			Actors:      []string{"Keanu Reeves", "Carrie-Anne Moss"},
			Director:    "Lana Wachowski",
			Description: "A hacker learns the truth.",
			TMDBRating:  models.FloatPtr(8.2),
			PosterURL:   "https://img/matrix.jpg",
		}

		view := RenderExternalDetail(rec, "")
		want := DetailView{
			TMDBID:      603,
			Title:       "The Matrix",
			Year:        "1999",
			Rating:      "8.2",
			Runtime:     "136 minutes",
			Genres:      "Action, Science Fiction",
			Language:    "en",
			Director:    "Lana Wachowski",
			Actors:      "Keanu Reeves, Carrie-Anne Moss",
			Description: "A hacker learns the truth.",
			Poster:      "https://img/matrix.jpg",
			ImportLabel: ImportLabel,
		}
		if view != want {
			t.Errorf("expected %+v, got %+v", want, view)
		}
	})

	t.Run("Sparse Record", func(t *testing.T) {
		view := RenderExternalDetail(models.MovieRecord{TMDBID: models.IntPtr(1), TMDBRating: models.FloatPtr(0), Runtime: models.IntPtr(0)}, "")
		if view.Rating != NotAvailable || view.Runtime != NotAvailable || view.Genres != NotAvailable || view.Language != NotAvailable {
			t.Errorf("expected N/A fallbacks, got %+v", view)
		}
		if view.Description != "No description available." {
			t.Errorf("unexpected description %q", view.Description)
		}
		if view.Poster != PlaceholderPoster {
			t.Errorf("unexpected poster %q", view.Poster)
		}
	})
}

func TestRenderLocalDetail(t *testing.T) {
	rec := models.MovieRecord{
		ID:            models.IntPtr(12),
		TMDBID:        models.IntPtr(603),
		Title:         "The Matrix",
		AverageRating: models.FloatPtr(4.5),
		TMDBRating:    models.FloatPtr(8.2),
		TrailerURL:    "https://youtube.com/watch?v=m8e-FF8MsqU",
	}

	view := RenderLocalDetail(rec, "/static/none.png")
	if view.ID != 12 || view.TMDBID != 603 {
		t.Errorf("unexpected ids %d / %d", view.ID, view.TMDBID)
	}
	if view.Rating != "4.5" {
		t.Errorf("expected local average, got %q", view.Rating)
	}
	if view.ImportLabel != "" {
		t.Errorf("local detail should not offer an import, got %q", view.ImportLabel)
	}
	if view.Poster != "/static/none.png" {
		t.Errorf("expected configured placeholder, got %q", view.Poster)
	}
	if view.Trailer == "" {
		t.Error("expected trailer url")
	}
}

func TestStars(t *testing.T) {
	tests := map[int]string{0: "☆☆☆☆☆", 3: "★★★☆☆", 5: "★★★★★", 9: "★★★★★", -1: "☆☆☆☆☆"}
	for rating, want := range tests {
		if got := Stars(rating); got != want {
			t.Errorf("Stars(%d) = %q, want %q", rating, got, want)
		}
	}
}
