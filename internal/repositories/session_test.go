package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
)

func newTestSession(username, access string) *models.Session {
	s := models.NewSession("http://localhost:8000/", username)
	s.SetTokens(access, "refresh-"+username, time.Now().Add(time.Hour).Truncate(time.Second))
	return s
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newTestSession("alice", "access-1")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID() == "" {
			t.Error("session ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newTestSession("alice", "access-1")
		session.SetCookies("csrftoken=abc")
		session.SetIsStaff(true)

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		got, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if got.BackendURL() != "http://localhost:8000" {
			t.Errorf("expected trimmed backend url, got %q", got.BackendURL())
		}
		if got.AccessToken() != "access-1" || got.RefreshToken() != "refresh-alice" {
			t.Errorf("unexpected tokens %q / %q", got.AccessToken(), got.RefreshToken())
		}
		if !got.ExpiresAt().Equal(session.ExpiresAt()) {
			t.Errorf("expected expiry %v, got %v", session.ExpiresAt(), got.ExpiresAt())
		}
		if got.Cookies() != "csrftoken=abc" || !got.IsStaff() {
			t.Errorf("unexpected cookies %q staff %v", got.Cookies(), got.IsStaff())
		}
	})

	t.Run("Get without expiry", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("http://localhost:8000", "curl")
		session.SetCookies("sessionid=xyz")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		got, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if !got.ExpiresAt().IsZero() {
			t.Errorf("expected zero expiry, got %v", got.ExpiresAt())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newTestSession("alice", "access-1")
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		session.SetTokens("access-2", "", time.Time{})
		if err := repo.Update(session); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		got, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got.AccessToken() != "access-2" {
			t.Errorf("expected access-2, got %q", got.AccessToken())
		}
		if got.RefreshToken() != "refresh-alice" {
			t.Errorf("refresh token should be kept, got %q", got.RefreshToken())
		}
	})

	t.Run("Save replaces earlier login", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		first := newTestSession("alice", "access-1")
		if err := repo.Save(first); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		second := newTestSession("alice", "access-2")
		if err := repo.Save(second); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("expected saved session to keep id %s, got %s", first.ID(), second.ID())
		}

		sessions, err := repo.List(map[string]any{"backend_url": "http://localhost:8000"})
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		if sessions[0].AccessToken() != "access-2" {
			t.Errorf("expected newest token, got %q", sessions[0].AccessToken())
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(newTestSession("alice", "a")); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := repo.Save(newTestSession("bob", "b")); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		got, err := repo.Latest("http://localhost:8000/")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if got.Username() != "bob" {
			t.Errorf("expected bob, got %s", got.Username())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := newTestSession("alice", "access-1")
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.Delete(session.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.Get(session.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		for _, name := range []string{"alice", "bob"} {
			if err := repo.Create(newTestSession(name, "tok")); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}
		other := models.NewSession("http://other:9000", "alice")
		other.SetTokens("tok", "", time.Time{})
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 sessions, got %d", len(all))
		}

		alices, err := repo.List(map[string]any{"username": "alice"})
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(alices) != 2 {
			t.Errorf("expected 2 sessions for alice, got %d", len(alices))
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Create(models.NewSession("http://localhost:8000", "alice")); err == nil {
				t.Fatal("expected validation error for session without credentials")
			}
		})

		t.Run("Duplicate", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Create(newTestSession("alice", "a")); err != nil {
				t.Fatalf("failed to create first session: %v", err)
			}
			if err := repo.Create(newTestSession("alice", "b")); err == nil {
				t.Fatal("expected error for a second session of the same user")
			}
		})
	})

	t.Run("Latest", func(t *testing.T) {
		t.Run("NoSession", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if _, err := repo.Latest("http://localhost:8000"); !errors.Is(err, shared.ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			session := newTestSession("alice", "a")
			session.SetID("nonexistent-id")
			if err := repo.Update(session); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})
}
