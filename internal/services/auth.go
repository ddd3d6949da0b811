package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const refreshTimeout = 15 * time.Second

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend verifies tokens; the client only needs to know when to refresh.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed access token: %w", shared.ErrInvalidCredentials, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// NewToken converts a [models.TokenPair] into an [oauth2.Token] with expiry taken from the access token.
func NewToken(pair models.TokenPair) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "Bearer",
	}
	if exp, err := TokenExpiry(pair.Access); err == nil {
		tok.Expiry = exp
	}
	return tok
}

// refreshSource exchanges a refresh token at /api/token/refresh/.
type refreshSource struct {
	svc     *BackendService
	refresh string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refresh == "" {
		return nil, shared.ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	var pair models.TokenPair
	err := r.svc.do(ctx, request{
		method:    http.MethodPost,
		route:     "/token/refresh/",
		path:      "/token/refresh/",
		body:      map[string]string{"refresh": r.refresh},
		result:    &pair,
		anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	if pair.Refresh == "" {
		pair.Refresh = r.refresh
	}
	r.refresh = pair.Refresh

	tok := NewToken(pair)
	r.svc.notifyRefresh(tok)
	return tok, nil
}

// UseToken attaches a token. Once tok expires it is refreshed transparently with its refresh token.
func (s *BackendService) UseToken(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok == nil {
		s.tokens = nil
		return
	}
	s.tokens = oauth2.ReuseTokenSource(tok, &refreshSource{svc: s, refresh: tok.RefreshToken})
}

// OnTokenRefresh registers fn to be called with every refreshed token, e.g. to persist it.
func (s *BackendService) OnTokenRefresh(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// Authenticated reports whether a token is attached.
func (s *BackendService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens != nil
}

// Token returns the current (possibly refreshed) token.
func (s *BackendService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.tokens
	s.mu.RUnlock()

	if src == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return src.Token()
}

func (s *BackendService) notifyRefresh(tok *oauth2.Token) {
	s.mu.RLock()
	fn := s.onRefresh
	s.mu.RUnlock()

	if fn != nil {
		fn(tok)
	}
}

// authorize sets the bearer header when a token is attached.
func (s *BackendService) authorize(req *http.Request) error {
	s.mu.RLock()
	src := s.tokens
	s.mu.RUnlock()

	if src == nil {
		return nil
	}

	tok, err := src.Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	return nil
}

// Login exchanges credentials for a token pair and attaches it.
func (s *BackendService) Login(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrMissingCredentials)
	}

	var pair models.TokenPair
	err := s.do(ctx, request{
		method:    http.MethodPost,
		route:     "/login/",
		path:      "/login/",
		body:      creds,
		result:    &pair,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("%w: login response carried no access token", shared.ErrAuthFailed)
	}

	tok := NewToken(pair)
	s.UseToken(tok)
	return tok, nil
}

// Register creates an account and attaches the issued tokens.
func (s *BackendService) Register(ctx context.Context, reg models.Registration) (*models.RegistrationResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var result models.RegistrationResult
	err := s.do(ctx, request{
		method:    http.MethodPost,
		route:     "/register/",
		path:      "/register/",
		body:      reg,
		result:    &result,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	if result.Tokens.Access != "" {
		s.UseToken(NewToken(result.Tokens))
	}
	return &result, nil
}

// Logout drops the attached token and all cookies.
func (s *BackendService) Logout() {
	s.UseToken(nil)
	expired := make([]*http.Cookie, 0)
	for _, c := range s.Cookies() {
		expired = append(expired, &http.Cookie{Name: c.Name, Value: "", MaxAge: -1, Path: "/"})
	}
	s.SetCookies(expired)
}
