package models

import (
	"encoding/json"
	"testing"
)

func TestYear(t *testing.T) {
	tc := []struct {
		name    string
		in      string
		want    Year
		wantErr bool
	}{
		{name: "integer", in: `2010`, want: 2010},
		{name: "four character string", in: `"2010"`, want: 2010},
		{name: "release date string", in: `"1999-03-31"`, want: 1999},
		{name: "null", in: `null`, want: 0},
		{name: "empty string", in: `""`, want: 0},
		{name: "placeholder string is unknown", in: `"TBA"`, want: 0},
		{name: "non numeric token", in: `true`, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var y Year
			err := json.Unmarshal([]byte(tt.in), &y)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && y != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, y, tt.want)
			}
		})
	}

	t.Run("Marshal unknown as null", func(t *testing.T) {
		data, _ := json.Marshal(Year(0))
		if string(data) != "null" {
			t.Errorf("expected null, got %s", data)
		}
	})
}

func TestMovieRecordDecoding(t *testing.T) {
	t.Run("Local Row", func(t *testing.T) {
		payload := `{"id": 5, "title": "A", "release_year": 2001, "source": "admin",
			"genres": [{"id": 1, "name": "Drama", "tmdb_id": 18}], "average_rating": 4.5,
			"actors": ["X", "Y"], "poster_image_url": "/media/posters/a.jpg"}`

		var m MovieRecord
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if m.ID == nil || *m.ID != 5 {
			t.Errorf("expected id 5, got %v", m.ID)
		}
		if m.TMDBID != nil {
			t.Errorf("expected no tmdb id, got %v", *m.TMDBID)
		}
		if len(m.Genres) != 1 || m.Genres[0].Name != "Drama" || *m.Genres[0].TMDBID != 18 {
			t.Errorf("unexpected genres %+v", m.Genres)
		}
		if m.Poster() != "/media/posters/a.jpg" {
			t.Errorf("unexpected poster %q", m.Poster())
		}
	})

	t.Run("External Detail", func(t *testing.T) {
		payload := `{"tmdb_id": 99, "title": "B", "release_year": "2015", "runtime": 120,
			"genres": ["Action", "Thriller"], "genre_ids": [28, 53], "tmdb_rating": 7.25,
			"poster_url": "https://image.tmdb.org/t/p/w500/b.jpg", "homepage": null}`

		var m MovieRecord
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if m.ID != nil {
			t.Errorf("expected no local id")
		}
		if m.ReleaseYear != 2015 {
			t.Errorf("expected year 2015, got %d", m.ReleaseYear)
		}
		names := m.Genres.Names()
		if len(names) != 2 || names[1] != "Thriller" {
			t.Errorf("unexpected genre names %v", names)
		}
		if m.Poster() != "https://image.tmdb.org/t/p/w500/b.jpg" {
			t.Errorf("poster should fall back to poster_url, got %q", m.Poster())
		}
	})

	t.Run("ExternalPage", func(t *testing.T) {
		payload := `{"results": [{"tmdb_id": 1, "title": "X", "release_year": null}], "total_pages": 3, "total_results": 41, "page": 2}`

		var p ExternalPage
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if p.TotalPages != 3 || p.Page != 2 || len(p.Results) != 1 {
			t.Errorf("unexpected page %+v", p)
		}
		if p.Results[0].ReleaseYear.Known() {
			t.Error("null year should be unknown")
		}
	})

	t.Run("ExternalPage With Placeholder Year", func(t *testing.T) {
		payload := `{"results": [{"tmdb_id": 1, "title": "X", "release_year": "TBA"}, {"tmdb_id": 2, "title": "Y", "release_year": "2024"}], "total_pages": 1, "page": 1}`

		var p ExternalPage
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			t.Fatalf("one odd year must not fail the page: %v", err)
		}
		if len(p.Results) != 2 {
			t.Fatalf("expected both rows, got %d", len(p.Results))
		}
		if p.Results[0].ReleaseYear.Known() {
			t.Error("TBA should decode as unknown")
		}
		if p.Results[1].ReleaseYear != 2024 {
			t.Errorf("expected 2024, got %d", p.Results[1].ReleaseYear)
		}
	})
}

func TestPageDescriptor(t *testing.T) {
	tc := []struct {
		name     string
		current  int
		total    int
		wantPrev bool
		wantNext bool
	}{
		{name: "first of many", current: 1, total: 3, wantPrev: false, wantNext: true},
		{name: "middle", current: 2, total: 3, wantPrev: true, wantNext: true},
		{name: "last", current: 3, total: 3, wantPrev: true, wantNext: false},
		{name: "zero total clamps to one", current: 1, total: 0, wantPrev: false, wantNext: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageDescriptor(tt.current, tt.total)
			if p.TotalPages < 1 || p.CurrentPage < 1 {
				t.Fatalf("descriptor must be clamped, got %+v", p)
			}
			if p.HasPrevious() != tt.wantPrev || p.HasNext() != tt.wantNext {
				t.Errorf("HasPrevious/HasNext = %v/%v, want %v/%v", p.HasPrevious(), p.HasNext(), tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestListing(t *testing.T) {
	l := Listing{Items: []ClassifiedRecord{
		{Origin: OriginLocal, TargetID: 5},
		{Origin: OriginExternal, TargetID: 99},
		{Origin: OriginExternal, TargetID: 100},
	}}

	local, external := l.Count()
	if local != 1 || external != 2 {
		t.Errorf("Count() = %d, %d", local, external)
	}
	if l.Empty() {
		t.Error("listing should not be empty")
	}
	if !(Listing{}).Empty() {
		t.Error("zero listing should be empty")
	}
	if OriginLocal.Badge() != "Our Collection" || OriginExternal.Badge() != "TMDb" {
		t.Error("unexpected badges")
	}
}

func TestValidation(t *testing.T) {
	t.Run("Registration", func(t *testing.T) {
		ok := Registration{Username: "ana", Email: "ana@example.com", Password: "pw", PasswordConfirm: "pw"}
		if err := ok.Validate(); err != nil {
			t.Errorf("expected valid registration, got %v", err)
		}

		mismatch := ok
		mismatch.PasswordConfirm = "other"
		if err := mismatch.Validate(); err == nil {
			t.Error("expected password mismatch error")
		}

		badRole := ok
		badRole.Role = "owner"
		if err := badRole.Validate(); err == nil {
			t.Error("expected role error")
		}
	})

	t.Run("ReviewInput", func(t *testing.T) {
		for _, rating := range []int{0, 6} {
			if err := (ReviewInput{Movie: 1, Rating: rating}).Validate(); err == nil {
				t.Errorf("rating %d should be rejected", rating)
			}
		}
		if err := (ReviewInput{Movie: 1, Rating: 5}).Validate(); err != nil {
			t.Errorf("rating 5 should be accepted: %v", err)
		}
	})

	t.Run("Preferences", func(t *testing.T) {
		p := Preferences{PreferredReleaseYearStart: IntPtr(2010), PreferredReleaseYearEnd: IntPtr(2000)}
		if err := p.Validate(); err == nil {
			t.Error("expected inverted year range to be rejected")
		}
	})

	t.Run("Session", func(t *testing.T) {
		s := NewSession("http://localhost:8000/", "ana")
		if s.BackendURL() != "http://localhost:8000" {
			t.Errorf("expected trailing slash trimmed, got %s", s.BackendURL())
		}
		if err := s.Validate(); err == nil {
			t.Error("session without credentials should be invalid")
		}
		s.SetTokens("access", "refresh", s.CreatedAt())
		s.SetTokens("access-2", "", s.CreatedAt())
		if s.RefreshToken() != "refresh" || s.AccessToken() != "access-2" {
			t.Errorf("unexpected tokens %s %s", s.AccessToken(), s.RefreshToken())
		}
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid session, got %v", err)
		}
	})

	t.Run("ImportRecord", func(t *testing.T) {
		if err := NewImportRecord("http://x", 0, ImportSucceeded).Validate(); err == nil {
			t.Error("expected zero tmdb id to be rejected")
		}
		if err := NewImportRecord("http://x", 5, "maybe").Validate(); err == nil {
			t.Error("expected unknown status to be rejected")
		}
	})
}
