package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

const sessionColumns = `id, backend_url, username, access_token, refresh_token, expires_at, cookies, is_staff, created_at, updated_at`

// SessionRepository implements [models.Repository] for saved [models.Session] logins.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with a generated ID
func (r *SessionRepository) Create(session *models.Session) error {
	session.SetID(shared.GenerateID())

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		session.ID(), session.BackendURL(), session.Username(), session.AccessToken(), session.RefreshToken(),
		nullTime(session.ExpiresAt()), session.Cookies(), session.IsStaff(), session.CreatedAt(), session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Save stores session, replacing any earlier login of the same user on the same backend.
// The stored row keeps its original ID, which is copied back onto session.
func (r *SessionRepository) Save(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if session.ID() == "" {
		session.SetID(shared.GenerateID())
	}
	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (backend_url, username) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			cookies = excluded.cookies,
			is_staff = excluded.is_staff,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		session.ID(), session.BackendURL(), session.Username(), session.AccessToken(), session.RefreshToken(),
		nullTime(session.ExpiresAt()), session.Cookies(), session.IsStaff(), session.CreatedAt(), now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	var id string
	err = r.db.QueryRow(
		`SELECT id FROM sessions WHERE backend_url = ? AND username = ?`,
		session.BackendURL(), session.Username(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to read saved session: %w", err)
	}
	session.SetID(id)

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// Latest returns the most recently updated session for backendURL.
func (r *SessionRepository) Latest(backendURL string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE backend_url = ? ORDER BY updated_at DESC LIMIT 1`

	session, err := scanSession(r.db.QueryRow(query, strings.TrimRight(backendURL, "/")))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", shared.ErrNoSession, backendURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// Update modifies an existing session
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET username = ?, access_token = ?, refresh_token = ?, expires_at = ?, cookies = ?, is_staff = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		session.Username(), session.AccessToken(), session.RefreshToken(), nullTime(session.ExpiresAt()),
		session.Cookies(), session.IsStaff(), now, session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return expectOneRow(result, "session", session.ID())
}

// Delete removes a session by ID. Logging out forgets the tokens, so there is no soft delete.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectOneRow(result, "session", id)
}

// List retrieves sessions matching the given criteria, newest first.
//
// Supported criteria: "backend_url" and "username".
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	args := []any{}

	if backend, ok := criteria["backend_url"].(string); ok && backend != "" {
		query += " AND backend_url = ?"
		args = append(args, strings.TrimRight(backend, "/"))
	}
	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*models.Session, error) {
	var (
		id, backendURL, username string
		access, refresh, cookies string
		expiresAt                sql.NullTime
		isStaff                  bool
		createdAt, updatedAt     time.Time
	)

	err := s.Scan(&id, &backendURL, &username, &access, &refresh, &expiresAt, &cookies, &isStaff, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	session := models.NewSession(backendURL, username)
	session.SetID(id)
	session.SetTokens(access, refresh, expiresAt.Time)
	session.SetCookies(cookies)
	session.SetIsStaff(isStaff)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	return session, nil
}

func expectOneRow(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, entity, id)
	}
	return nil
}
