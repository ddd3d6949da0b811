package tasks

import (
	"testing"

	"github.com/desertthunder/figx/internal/models"
)

func TestClassify(t *testing.T) {
	id := models.IntPtr
	tests := []struct {
		name       string
		record     models.MovieRecord
		wantOrigin models.Origin
		wantTarget int
	}{
		{
			name:       "Local Hint Below Cutoff",
			record:     models.MovieRecord{ID: id(5), SourceHint: models.HintLocal},
			wantOrigin: models.OriginLocal,
			wantTarget: 5,
		},
		{
			name:       "Admin Hint Below Cutoff",
			record:     models.MovieRecord{ID: id(9999), SourceHint: models.HintAdmin},
			wantOrigin: models.OriginLocal,
			wantTarget: 9999,
		},
		{
			name:       "Imported Row Keeps Local Id",
			record:     models.MovieRecord{ID: id(12), TMDBID: id(603), SourceHint: models.HintLocal},
			wantOrigin: models.OriginLocal,
			wantTarget: 12,
		},
		{
			name:       "Local Hint At Cutoff",
			record:     models.MovieRecord{ID: id(LocalIDCutoff), TMDBID: id(77), SourceHint: models.HintLocal},
			wantOrigin: models.OriginExternal,
			wantTarget: 77,
		},
		{
			name:       "Local Hint Without Id",
			record:     models.MovieRecord{TMDBID: id(99), SourceHint: models.HintLocal},
			wantOrigin: models.OriginExternal,
			wantTarget: 99,
		},
		{
			name:       "External Hint With Small Id",
			record:     models.MovieRecord{ID: id(5), SourceHint: models.HintExternal},
			wantOrigin: models.OriginExternal,
			wantTarget: 5,
		},
		{
			name:       "Tmdb Only",
			record:     models.MovieRecord{TMDBID: id(99)},
			wantOrigin: models.OriginExternal,
			wantTarget: 99,
		},
		{
			name:       "Zero Tmdb Id Falls Back To Id",
			record:     models.MovieRecord{ID: id(550), TMDBID: id(0)},
			wantOrigin: models.OriginExternal,
			wantTarget: 550,
		},
		{
			name:       "Zero Local Id Is Absent",
			record:     models.MovieRecord{ID: id(0), TMDBID: id(42), SourceHint: models.HintLocal},
			wantOrigin: models.OriginExternal,
			wantTarget: 42,
		},
		{
			name:       "Negative Local Id",
			record:     models.MovieRecord{ID: id(-3), SourceHint: models.HintAdmin},
			wantOrigin: models.OriginExternal,
			wantTarget: -3,
		},
		{
			name:       "No Identifiers",
			record:     models.MovieRecord{Title: "Untitled"},
			wantOrigin: models.OriginExternal,
			wantTarget: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.record)
			if got.Origin != tt.wantOrigin {
				t.Errorf("expected origin %s, got %s", tt.wantOrigin, got.Origin)
			}
			if got.TargetID != tt.wantTarget {
				t.Errorf("expected target %d, got %d", tt.wantTarget, got.TargetID)
			}
		})
	}

	t.Run("Local Hints Below Cutoff Are Always Local", func(t *testing.T) {
		for _, hint := range []string{models.HintLocal, models.HintAdmin} {
			for _, n := range []int{0, 1, 42, 5000, LocalIDCutoff - 1} {
				rec := models.MovieRecord{ID: id(n), TMDBID: id(n + 1), SourceHint: hint}
				if got := Classify(rec); !got.IsLocal() {
					t.Errorf("hint %s id %d: expected local", hint, n)
				}
			}
		}
	})

	t.Run("Tmdb Only Records Are Always External", func(t *testing.T) {
		for _, hint := range []string{"", models.HintLocal, models.HintAdmin, models.HintExternal} {
			rec := models.MovieRecord{TMDBID: id(99), SourceHint: hint}
			if got := Classify(rec); got.IsLocal() {
				t.Errorf("hint %q: expected external", hint)
			}
		}
	})
}

func TestClassifyBatch(t *testing.T) {
	records := []models.MovieRecord{
		{ID: models.IntPtr(3), Title: "First", SourceHint: models.HintExternal},
		{ID: models.IntPtr(1), Title: "Second"},
	}

	t.Run("Stamps Hint And Keeps Order", func(t *testing.T) {
		got := ClassifyBatch(records, models.HintLocal)
		if len(got) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got))
		}
		if got[0].Record.Title != "First" || got[1].Record.Title != "Second" {
			t.Error("expected upstream order to be kept")
		}
		for _, c := range got {
			if c.Record.SourceHint != models.HintLocal || !c.IsLocal() {
				t.Errorf("expected stamped local record, got %+v", c)
			}
		}
	})

	t.Run("Does Not Mutate Input", func(t *testing.T) {
		ClassifyBatch(records, models.HintLocal)
		if records[0].SourceHint != models.HintExternal {
			t.Error("input slice was modified")
		}
	})

	t.Run("Empty Batch", func(t *testing.T) {
		if got := ClassifyBatch(nil, models.HintExternal); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}
