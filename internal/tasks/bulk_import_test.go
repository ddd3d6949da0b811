package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	tu "github.com/desertthunder/figx/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.ImportRecord
	err     error
}

func (f *fakeRecorder) RecordImport(rec *models.ImportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func importGateway() *tu.MockGateway {
	return &tu.MockGateway{
		ImportFn: func(_ context.Context, tmdbID int) (*models.MovieRecord, error) {
			switch tmdbID {
			case 2:
				return nil, fmt.Errorf("%w: duplicate", shared.ErrAlreadyImported)
			case 3:
				return nil, &services.RequestFailed{Kind: services.KindForbidden, Status: http.StatusForbidden}
			}
			return &models.MovieRecord{ID: models.IntPtr(tmdbID + 100), TMDBID: models.IntPtr(tmdbID), Title: fmt.Sprintf("Movie %d", tmdbID)}, nil
		},
	}
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	opts := BulkImportOpts{NumWorkers: 2, RateLimit: 1000, BackendURL: "http://backend.test"}

	t.Run("Counts Outcomes In Input Order", func(t *testing.T) {
		recorder := &fakeRecorder{}
		o := opts
		o.Recorder = recorder
		progress := make(chan ProgressUpdate, 20)

		result, err := NewListingEngine(importGateway(), nil).BulkImport(ctx, progress, []int{1, 2, 3, 1, 4}, o)
		if err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		close(progress)

		if result.Total != 4 || result.Imported != 2 || result.Skipped != 1 || result.Failed != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		wantIDs := []int{1, 2, 3, 4}
		for i, res := range result.Results {
			if res.TMDBID != wantIDs[i] {
				t.Errorf("result %d: expected tmdb %d, got %d", i, wantIDs[i], res.TMDBID)
			}
		}
		if result.Results[0].MovieID != 101 || result.Results[0].Title != "Movie 1" {
			t.Errorf("unexpected first result %+v", result.Results[0])
		}
		if result.Results[2].Message != services.MsgForbidden {
			t.Errorf("expected forbidden message, got %q", result.Results[2].Message)
		}

		if len(recorder.records) != 4 {
			t.Fatalf("expected 4 audit records, got %d", len(recorder.records))
		}
		for _, rec := range recorder.records {
			if rec.BackendURL() != "http://backend.test" {
				t.Errorf("unexpected backend url %q", rec.BackendURL())
			}
		}

		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		if len(updates) != 6 {
			t.Fatalf("expected 6 progress updates, got %d", len(updates))
		}
		if updates[0].Phase != QueueImports || updates[len(updates)-1].Phase != ImportSummary {
			t.Errorf("unexpected phases %s .. %s", updates[0].Phase, updates[len(updates)-1].Phase)
		}
		if updates[len(updates)-1].Message != "Imported 2, skipped 1, failed 1" {
			t.Errorf("unexpected summary %q", updates[len(updates)-1].Message)
		}
	})

	t.Run("Recorder Errors Do Not Fail The Import", func(t *testing.T) {
		o := opts
		o.Recorder = &fakeRecorder{err: errors.New("disk full")}

		result, err := NewListingEngine(importGateway(), nil).BulkImport(ctx, nil, []int{1}, o)
		if err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		if result.Imported != 1 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Counts Metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		engine := NewListingEngine(importGateway(), nil).WithMetrics(services.NewMetrics(reg))

		if _, err := engine.BulkImport(ctx, nil, []int{1, 2, 3}, opts); err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("Gather() error = %v", err)
		}
		var total float64
		for _, mf := range families {
			if mf.GetName() == "figx_imports_total" {
				for _, m := range mf.GetMetric() {
					total += m.GetCounter().GetValue()
				}
			}
		}
		if total != 3 {
			t.Errorf("expected 3 counted imports, got %v", total)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		engine := NewListingEngine(importGateway(), nil)
		if _, err := engine.BulkImport(ctx, nil, nil, opts); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := engine.BulkImport(ctx, nil, []int{1, -5}, opts); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewListingEngine(importGateway(), nil).BulkImport(ctx, nil, []int{1, 2}, opts)
		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	})
}
