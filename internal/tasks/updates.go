package tasks

import (
	"fmt"

	"github.com/desertthunder/figx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueueImports Phase = iota
	ImportMovie
	ImportSummary
)

func (p Phase) String() string {
	switch p {
	case QueueImports:
		return "queue_imports"
	case ImportMovie:
		return "import_movie"
	case ImportSummary:
		return "import_summary"
	default:
		return ""
	}
}

// sendProgress never blocks: a full or nil channel drops the update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func queuedImportsUpdate(total, skipped int) ProgressUpdate {
	msg := fmt.Sprintf("Importing %d movies...", total)
	if skipped > 0 {
		msg = fmt.Sprintf("Importing %d movies (%d duplicate ids dropped)...", total, skipped)
	}
	return ProgressUpdate{
		Phase:   QueueImports,
		Step:    0,
		Total:   total,
		Message: msg,
	}
}

func importedUpdate(step, total int, res ImportResult) ProgressUpdate {
	var msg string
	switch res.Status {
	case models.ImportSucceeded:
		msg = fmt.Sprintf("[%d/%d] ✓ %s (tmdb %d -> #%d)", step, total, res.Title, res.TMDBID, res.MovieID)
	case models.ImportSkipped:
		msg = fmt.Sprintf("[%d/%d] - tmdb %d already imported", step, total, res.TMDBID)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ tmdb %d: %s", step, total, res.TMDBID, res.Message)
	}
	return ProgressUpdate{
		Phase:   ImportMovie,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func importSummaryUpdate(r *BulkImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSummary,
		Step:    r.Total,
		Total:   r.Total,
		Message: fmt.Sprintf("Imported %d, skipped %d, failed %d", r.Imported, r.Skipped, r.Failed),
		Data:    r,
	}
}
