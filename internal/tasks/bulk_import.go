package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"golang.org/x/time/rate"
)

// ImportRecorder persists import outcomes. Implemented by repositories.ImportLogRepository.
type ImportRecorder interface {
	RecordImport(rec *models.ImportRecord) error
}

// BulkImportOpts configures [ListingEngine.BulkImport].
type BulkImportOpts struct {
	NumWorkers int            // Concurrent imports (default: 3, max: 10)
	RateLimit  float64        // Imports per second (default: 2)
	Recorder   ImportRecorder // Optional audit log
	BackendURL string         // Recorded with each audit entry
}

// ImportResult is the outcome for one tmdb id.
type ImportResult struct {
	TMDBID  int
	MovieID int
	Title   string
	Status  models.ImportStatus
	Message string // display message when Status is failed
	Err     error
}

// BulkImportResult summarizes a bulk import. Results follow the input order.
type BulkImportResult struct {
	Total    int
	Imported int
	Skipped  int
	Failed   int
	Results  []ImportResult
}

type importJob struct {
	index  int
	tmdbID int
}

// BulkImport imports many external movies with a bounded, rate limited worker pool.
//
// Movies that are already imported count as skipped, not failed. Duplicate ids are
// imported once. Audit log failures are logged and never fail the import.
func (e *ListingEngine) BulkImport(ctx context.Context, prog chan<- ProgressUpdate, ids []int, opts BulkImportOpts) (*BulkImportResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no tmdb ids to import", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	unique := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: tmdb id must be positive, got %d", shared.ErrInvalidArgument, id)
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	result := &BulkImportResult{Total: len(unique), Results: make([]ImportResult, len(unique))}
	sendProgress(prog, queuedImportsUpdate(len(unique), len(ids)-len(unique)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan importJob, len(unique))
	results := make(chan importJob, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.importWorker(ctx, &wg, limiter, jobs, results, result.Results)
	}

	go func() {
		defer close(jobs)
		for i, id := range unique {
			select {
			case <-ctx.Done():
				return
			case jobs <- importJob{index: i, tmdbID: id}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for job := range results {
		completed++
		res := result.Results[job.index]
		switch res.Status {
		case models.ImportSucceeded:
			result.Imported++
		case models.ImportSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		e.metrics.ObserveImport(string(res.Status))
		e.record(opts, res)
		sendProgress(prog, importedUpdate(completed, result.Total, res))
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: bulk import stopped after %d of %d: %w", shared.ErrCancelled, completed, result.Total, err)
	}

	sendProgress(prog, importSummaryUpdate(result))
	e.logger.Info("bulk import finished", "imported", result.Imported, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// importWorker writes each outcome into its own slot of out, then reports the job as done.
func (e *ListingEngine) importWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan importJob,
	results chan<- importJob,
	out []ImportResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		out[job.index] = e.importOne(ctx, job.tmdbID)
		results <- job
	}
}

func (e *ListingEngine) importOne(ctx context.Context, tmdbID int) ImportResult {
	res := ImportResult{TMDBID: tmdbID}

	movie, err := e.gateway.ImportExternalMovie(ctx, tmdbID)
	switch {
	case errors.Is(err, shared.ErrAlreadyImported):
		res.Status = models.ImportSkipped
	case err != nil:
		res.Status = models.ImportFailed
		res.Message = services.DisplayMessage(err)
		res.Err = err
	default:
		res.Status = models.ImportSucceeded
		res.Title = movie.Title
		if movie.ID != nil {
			res.MovieID = *movie.ID
		}
	}
	return res
}

func (e *ListingEngine) record(opts BulkImportOpts, res ImportResult) {
	if opts.Recorder == nil {
		return
	}

	rec := models.NewImportRecord(opts.BackendURL, res.TMDBID, res.Status)
	rec.SetTitle(res.Title)
	if res.MovieID > 0 {
		rec.SetMovieID(models.IntPtr(res.MovieID))
	}
	rec.SetError(res.Message)

	if err := opts.Recorder.RecordImport(rec); err != nil {
		e.logger.Warn("failed to record import", "tmdb_id", res.TMDBID, "err", err)
	}
}
