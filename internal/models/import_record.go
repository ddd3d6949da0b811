package models

import (
	"fmt"
	"time"
)

// ImportStatus is the outcome of importing one external movie.
type ImportStatus string

const (
	ImportSucceeded ImportStatus = "imported"
	ImportSkipped   ImportStatus = "skipped"
	ImportFailed    ImportStatus = "failed"
)

// ImportRecord is one entry of the local import audit log.
type ImportRecord struct {
	id         string
	sequence   int
	backendURL string
	tmdbID     int
	movieID    *int
	title      string
	status     ImportStatus
	errMessage string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewImportRecord creates an audit entry for tmdbID.
func NewImportRecord(backendURL string, tmdbID int, status ImportStatus) *ImportRecord {
	now := time.Now()
	return &ImportRecord{
		backendURL: backendURL,
		tmdbID:     tmdbID,
		status:     status,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *ImportRecord) ID() string           { return r.id }
func (r *ImportRecord) Sequence() int        { return r.sequence }
func (r *ImportRecord) CreatedAt() time.Time { return r.createdAt }
func (r *ImportRecord) UpdatedAt() time.Time { return r.updatedAt }
func (r *ImportRecord) BackendURL() string   { return r.backendURL }
func (r *ImportRecord) TMDBID() int          { return r.tmdbID }
func (r *ImportRecord) MovieID() *int        { return r.movieID }
func (r *ImportRecord) Title() string        { return r.title }
func (r *ImportRecord) Status() ImportStatus { return r.status }
func (r *ImportRecord) ErrorMessage() string { return r.errMessage }

func (r *ImportRecord) SetID(id string)          { r.id = id }
func (r *ImportRecord) SetSequence(seq int)      { r.sequence = seq }
func (r *ImportRecord) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *ImportRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *ImportRecord) SetMovieID(id *int)       { r.movieID = id }
func (r *ImportRecord) SetTitle(title string)    { r.title = title }
func (r *ImportRecord) SetStatus(s ImportStatus) { r.status = s }
func (r *ImportRecord) SetError(message string)  { r.errMessage = message }

// Validate checks required fields.
func (r *ImportRecord) Validate() error {
	if r.tmdbID <= 0 {
		return fmt.Errorf("import record needs a positive tmdb id, got %d", r.tmdbID)
	}
	switch r.status {
	case ImportSucceeded, ImportSkipped, ImportFailed:
	default:
		return fmt.Errorf("unknown import status %q", r.status)
	}
	return nil
}
