package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/figx/internal/models"
	"github.com/gorilla/mux"
)

// CSRFToken is the cookie value the fake backend hands out from its login page.
const CSRFToken = "fake-csrf-token"

// RecordedRequest is a request seen by [FakeBackend].
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
}

type fakeUser struct {
	password string
	role     string
	id       int
}

type failure struct {
	status int
	body   string
}

// FakeBackend is an in-memory stand-in for the catalog backend's REST API.
type FakeBackend struct {
	Server *httptest.Server

	// RequireCSRF rejects mutating requests whose X-CSRFToken header does not match the cookie.
	RequireCSRF bool
	// ExternalTotalPages is reported by external listings. Defaults to 1.
	ExternalTotalPages int

	mu       sync.Mutex
	local    []models.MovieRecord
	external []models.MovieRecord
	users    map[string]fakeUser
	tokens   map[string]string
	failures map[string]failure
	requests []RecordedRequest
	nextID   int
	issued   int
}

// NewFakeBackend starts a fake backend that shuts down with t.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		ExternalTotalPages: 1,
		users:              map[string]fakeUser{},
		tokens:             map[string]string{},
		failures:           map[string]failure{},
		nextID:             1,
	}
	fb.Server = httptest.NewServer(fb.router())
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL is the backend origin.
func (fb *FakeBackend) URL() string { return fb.Server.URL }

// AddLocal appends a local movie and returns its id.
func (fb *FakeBackend) AddLocal(m models.MovieRecord) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if m.ID == nil {
		m.ID = models.IntPtr(fb.nextID)
	}
	if *m.ID >= fb.nextID {
		fb.nextID = *m.ID + 1
	}
	if m.SourceHint == "" {
		m.SourceHint = models.HintAdmin
	}
	fb.local = append(fb.local, m)
	return *m.ID
}

// AddExternal appends a movie to the external catalog.
func (fb *FakeBackend) AddExternal(m models.MovieRecord) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.external = append(fb.external, m)
}

// AddUser registers credentials. role is "admin" or "user".
func (fb *FakeBackend) AddUser(username, password, role string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.users[username] = fakeUser{password: password, role: role, id: len(fb.users) + 1}
}

// FailWith makes every request to path answer status with body.
func (fb *FakeBackend) FailWith(path string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[path] = failure{status: status, body: body}
}

// Requests returns every request seen so far.
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]RecordedRequest(nil), fb.requests...)
}

// LastRequest returns the most recent request to path.
func (fb *FakeBackend) LastRequest(path string) (RecordedRequest, bool) {
	reqs := fb.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// Local returns a copy of the local catalog.
func (fb *FakeBackend) Local() []models.MovieRecord {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]models.MovieRecord(nil), fb.local...)
}

func (fb *FakeBackend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(fb.recordMiddleware, fb.failureMiddleware)

	r.HandleFunc("/login/", fb.loginPage).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(fb.csrfMiddleware)

	api.HandleFunc("/login/", fb.login).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", fb.refresh).Methods(http.MethodPost)
	api.HandleFunc("/user/", fb.currentUser).Methods(http.MethodGet)
	api.HandleFunc("/movies/", fb.listLocal).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/", fb.getLocal).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/delete/", fb.deleteLocal).Methods(http.MethodDelete)
	api.HandleFunc("/movies/tmdb/search/", fb.searchExternal).Methods(http.MethodGet)
	api.HandleFunc("/movies/tmdb/popular/", fb.listExternal).Methods(http.MethodGet)
	api.HandleFunc("/movies/tmdb/top-rated/", fb.listExternal).Methods(http.MethodGet)
	api.HandleFunc("/movies/tmdb/{id:[0-9]+}/", fb.externalDetail).Methods(http.MethodGet)
	api.HandleFunc("/movies/tmdb/{id:[0-9]+}/import/", fb.importExternal).Methods(http.MethodPost)
	return r
}

func (fb *FakeBackend) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.requests = append(fb.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		})
		fb.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		f, ok := fb.failures[r.URL.Path]
		fb.mu.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			fmt.Fprint(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fb.RequireCSRF && r.Method != http.MethodGet {
			cookie, err := r.Cookie("csrftoken")
			if err != nil || cookie.Value == "" || r.Header.Get("X-CSRFToken") != cookie.Value {
				writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing."})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (fb *FakeBackend) loginPage(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: CSRFToken, Path: "/"})
	w.Write([]byte("<html><body>login</body></html>"))
}

func (fb *FakeBackend) issue(username string) models.TokenPair {
	fb.issued++
	access := fmt.Sprintf("access-%s-%d", username, fb.issued)
	refresh := fmt.Sprintf("refresh-%s-%d", username, fb.issued)
	fb.tokens[access] = username
	fb.tokens[refresh] = username
	return models.TokenPair{Access: access, Refresh: refresh}
}

func (fb *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	u, ok := fb.users[creds.Username]
	if !ok || u.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	writeJSON(w, http.StatusOK, fb.issue(creds.Username))
}

func (fb *FakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	username, ok := fb.tokens[body.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	pair := fb.issue(username)
	writeJSON(w, http.StatusOK, models.TokenPair{Access: pair.Access})
}

// caller resolves the bearer token to a user.
func (fb *FakeBackend) caller(r *http.Request) (string, fakeUser, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	fb.mu.Lock()
	defer fb.mu.Unlock()

	username, ok := fb.tokens[token]
	if !ok {
		return "", fakeUser{}, false
	}
	return username, fb.users[username], true
}

func (fb *FakeBackend) currentUser(w http.ResponseWriter, r *http.Request) {
	username, u, ok := fb.caller(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	writeJSON(w, http.StatusOK, models.User{ID: u.id, Username: username, Email: username + "@example.com", Role: u.role})
}

func (fb *FakeBackend) listLocal(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))

	fb.mu.Lock()
	out := make([]models.MovieRecord, 0, len(fb.local))
	for _, m := range fb.local {
		if search == "" || strings.Contains(strings.ToLower(m.Title), search) {
			out = append(out, m)
		}
	}
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (fb *FakeBackend) getLocal(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for _, m := range fb.local {
		if *m.ID == id {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (fb *FakeBackend) deleteLocal(w http.ResponseWriter, r *http.Request) {
	if _, u, ok := fb.caller(r); !ok || u.role != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
		return
	}

	id := pathID(r)
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i, m := range fb.local {
		if *m.ID == id {
			fb.local = append(fb.local[:i], fb.local[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (fb *FakeBackend) externalPage(w http.ResponseWriter, r *http.Request, results []models.MovieRecord) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	writeJSON(w, http.StatusOK, models.ExternalPage{
		Results:      results,
		Page:         max(page, 1),
		TotalPages:   fb.ExternalTotalPages,
		TotalResults: len(results),
	})
}

func (fb *FakeBackend) searchExternal(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Search query required"})
		return
	}

	fb.mu.Lock()
	var out []models.MovieRecord
	for _, m := range fb.external {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	fb.mu.Unlock()

	fb.externalPage(w, r, out)
}

func (fb *FakeBackend) listExternal(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	out := append([]models.MovieRecord(nil), fb.external...)
	fb.mu.Unlock()

	fb.externalPage(w, r, out)
}

func (fb *FakeBackend) findExternal(tmdbID int) (models.MovieRecord, bool) {
	for _, m := range fb.external {
		if m.TMDBID != nil && *m.TMDBID == tmdbID {
			return m, true
		}
	}
	return models.MovieRecord{}, false
}

func (fb *FakeBackend) externalDetail(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	m, ok := fb.findExternal(pathID(r))
	fb.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (fb *FakeBackend) importExternal(w http.ResponseWriter, r *http.Request) {
	if _, u, ok := fb.caller(r); !ok || u.role != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
		return
	}

	tmdbID := pathID(r)
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for _, m := range fb.local {
		if m.TMDBID != nil && *m.TMDBID == tmdbID {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Movie already imported"})
			return
		}
	}

	ext, ok := fb.findExternal(tmdbID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Movie not found on TMDb"})
		return
	}

	ext.ID = models.IntPtr(fb.nextID)
	ext.TMDBID = models.IntPtr(tmdbID)
	ext.SourceHint = models.HintExternal
	fb.nextID++
	fb.local = append(fb.local, ext)
	writeJSON(w, http.StatusCreated, ext)
}
