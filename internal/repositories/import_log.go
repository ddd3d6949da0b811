package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

const importColumns = `id, sequence, backend_url, tmdb_id, movie_id, title, status, error, created_at, updated_at`

// ImportLogRepository implements [models.Repository] for the [models.ImportRecord] audit log.
type ImportLogRepository struct {
	db *sql.DB
}

// NewImportLogRepository creates a new [ImportLogRepository] with the given database connection
func NewImportLogRepository(db *sql.DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Create inserts a new audit entry with generated ID and sequence
func (r *ImportLogRepository) Create(rec *models.ImportRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "import_log")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.SetID(shared.GenerateID())
	rec.SetSequence(sequence)

	query := `INSERT INTO import_log (` + importColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		rec.ID(), rec.Sequence(), rec.BackendURL(), rec.TMDBID(), nullInt(rec.MovieID()),
		rec.Title(), string(rec.Status()), rec.ErrorMessage(), rec.CreatedAt(), rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import record: %w", err)
	}

	return nil
}

// RecordImport appends one bulk import outcome to the log.
func (r *ImportLogRepository) RecordImport(rec *models.ImportRecord) error {
	return r.Create(rec)
}

// Get retrieves an audit entry by ID
func (r *ImportLogRepository) Get(id string) (*models.ImportRecord, error) {
	rec, err := scanImport(r.db.QueryRow(`SELECT `+importColumns+` FROM import_log WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: import record %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query import record: %w", err)
	}

	return rec, nil
}

// Update modifies the outcome fields of an existing entry
func (r *ImportLogRepository) Update(rec *models.ImportRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	rec.SetUpdatedAt(now)

	query := `
		UPDATE import_log
		SET movie_id = ?, title = ?, status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullInt(rec.MovieID()), rec.Title(), string(rec.Status()), rec.ErrorMessage(), now, rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import record: %w", err)
	}

	return expectOneRow(result, "import record", rec.ID())
}

// Delete removes an audit entry by ID
func (r *ImportLogRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM import_log WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import record: %w", err)
	}

	return expectOneRow(result, "import record", id)
}

// List retrieves audit entries matching the given criteria in sequence order.
//
// Supported criteria: "backend_url", "status" (string or [models.ImportStatus]),
// "tmdb_id" (int) and "limit" (int, keeps the newest entries).
func (r *ImportLogRepository) List(criteria map[string]any) ([]*models.ImportRecord, error) {
	query := `SELECT ` + importColumns + ` FROM import_log WHERE 1 = 1`
	args := []any{}

	if backend, ok := criteria["backend_url"].(string); ok && backend != "" {
		query += " AND backend_url = ?"
		args = append(args, backend)
	}

	switch status := criteria["status"].(type) {
	case models.ImportStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if tmdbID, ok := criteria["tmdb_id"].(int); ok && tmdbID > 0 {
		query += " AND tmdb_id = ?"
		args = append(args, tmdbID)
	}

	limit, _ := criteria["limit"].(int)
	if limit > 0 {
		query += " ORDER BY sequence DESC LIMIT ?"
		args = append(args, limit)
	} else {
		query += " ORDER BY sequence ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import log: %w", err)
	}
	defer rows.Close()

	var records []*models.ImportRecord
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(records)
	}
	return records, nil
}

func scanImport(s scanner) (*models.ImportRecord, error) {
	var (
		id, backendURL, title string
		status, errMessage    string
		sequence, tmdbID      int
		movieID               sql.NullInt64
		createdAt, updatedAt  time.Time
	)

	err := s.Scan(&id, &sequence, &backendURL, &tmdbID, &movieID, &title, &status, &errMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec := models.NewImportRecord(backendURL, tmdbID, models.ImportStatus(status))
	rec.SetID(id)
	rec.SetSequence(sequence)
	rec.SetTitle(title)
	rec.SetError(errMessage)
	rec.SetCreatedAt(createdAt)
	rec.SetUpdatedAt(updatedAt)
	if movieID.Valid {
		rec.SetMovieID(models.IntPtr(int(movieID.Int64)))
	}
	return rec, nil
}
