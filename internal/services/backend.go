// Backend gateway implementation over the catalog REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/figx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	apiPrefix      = "/api"
	maxErrorBody   = 1 << 20
	defaultBaseURL = "http://localhost:8000"
)

// BackendOptions configures a [BackendService].
type BackendOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RateLimit     float64 // requests per second, 0 disables throttling
	RateBurst     int
	CSRFCookie    string
	CSRFHeader    string
	CSRFPrimePath string
	HTTPClient    *http.Client // Jar and Timeout are overwritten
	Logger        *log.Logger
	Metrics       *Metrics
}

// OptionsFromConfig fills [BackendOptions] from the [shared.Config] backend section.
func OptionsFromConfig(cfg *shared.Config) BackendOptions {
	return BackendOptions{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout(),
		RateLimit:     cfg.Backend.RateLimit,
		RateBurst:     cfg.Backend.RateBurst,
		CSRFCookie:    cfg.Backend.CSRFCookie,
		CSRFHeader:    cfg.Backend.CSRFHeader,
		CSRFPrimePath: cfg.Backend.CSRFPrimePath,
	}
}

// BackendService implements [Gateway] against the catalog backend.
//
// Every mutating request carries the CSRF token read from the cookie jar and a
// Referer of the backend origin. Requests carry a bearer token when a session is attached.
// Nothing is retried.
type BackendService struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	limiter    *rate.Limiter
	logger     *log.Logger
	metrics    *Metrics

	csrfCookie    string
	csrfHeader    string
	csrfPrimePath string

	mu        sync.RWMutex
	tokens    oauth2.TokenSource
	onRefresh func(*oauth2.Token)
	primed    bool
}

// NewBackendService creates a gateway for opts.BaseURL.
func NewBackendService(opts BackendOptions) (*BackendService, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid backend url %q", shared.ErrInvalidConfig, opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	client.Jar = jar
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	csrfCookie, csrfHeader := opts.CSRFCookie, opts.CSRFHeader
	if csrfCookie == "" {
		csrfCookie = "csrftoken"
	}
	if csrfHeader == "" {
		csrfHeader = "X-CSRFToken"
	}

	return &BackendService{
		baseURL:       base,
		httpClient:    client,
		jar:           jar,
		limiter:       limiter,
		logger:        shared.WithLogger(logger, "component", "gateway"),
		metrics:       opts.Metrics,
		csrfCookie:    csrfCookie,
		csrfHeader:    csrfHeader,
		csrfPrimePath: opts.CSRFPrimePath,
	}, nil
}

// Name returns the backend origin.
func (s *BackendService) Name() string {
	return s.Origin()
}

// Origin returns scheme://host of the backend.
func (s *BackendService) Origin() string {
	return s.baseURL.Scheme + "://" + s.baseURL.Host
}

// SetCookies stores cookies (session, csrftoken) for the backend origin.
func (s *BackendService) SetCookies(cookies []*http.Cookie) {
	s.jar.SetCookies(s.baseURL, cookies)
}

// Cookies returns the cookies currently held for the backend origin.
func (s *BackendService) Cookies() []*http.Cookie {
	return s.jar.Cookies(s.baseURL)
}

// CSRFToken reads the CSRF cookie from the jar. Empty when the backend has not set one.
func (s *BackendService) CSRFToken() string {
	for _, c := range s.jar.Cookies(s.baseURL) {
		if c.Name == s.csrfCookie {
			return c.Value
		}
	}
	return ""
}

// request describes one backend call.
type request struct {
	method      string
	route       string // template used as the metrics label, e.g. "/movies/tmdb/{id}/"
	path        string // concrete path below /api
	query       url.Values
	body        any
	contentType string // set when body is an io.Reader
	result      any
	anonymous   bool
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// do executes r and decodes a 2xx body into r.result.
func (s *BackendService) do(ctx context.Context, r request) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrCancelled, err)
		}
	}

	if isMutating(r.method) {
		s.primeCSRF(ctx)
	}

	fullPath := apiPrefix + r.path
	req, err := s.newRequest(ctx, r, fullPath)
	if err != nil {
		return err
	}

	if !r.anonymous {
		if err := s.authorize(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.observe(r.route, r.method, 0, time.Since(start))
		s.logger.Debug("backend request failed", "method", r.method, "path", fullPath, "err", err)
		return networkFailure(r.method, fullPath, err)
	}
	defer resp.Body.Close()

	s.metrics.observe(r.route, r.method, resp.StatusCode, time.Since(start))
	s.logger.Debug("backend request", "method", r.method, "path", fullPath, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newRequestFailed(r.method, fullPath, resp.StatusCode, body)
	}

	if r.result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkFailure(r.method, fullPath, fmt.Errorf("failed to read response: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, r.result); err != nil {
		return &RequestFailed{
			Kind:   KindUnknown,
			Status: resp.StatusCode,
			Method: r.method,
			Path:   fullPath,
			Err:    fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// newRequest builds the HTTP request with body, standard headers and the CSRF pair.
func (s *BackendService) newRequest(ctx context.Context, r request, fullPath string) (*http.Request, error) {
	u := *s.baseURL
	u.Path = strings.TrimRight(s.baseURL.Path, "/") + fullPath
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var (
		body        io.Reader
		contentType = r.contentType
	)
	switch b := r.body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if isMutating(r.method) {
		if token := s.CSRFToken(); token != "" {
			req.Header.Set(s.csrfHeader, token)
		}
		req.Header.Set("Referer", s.Origin()+"/")
	}
	return req, nil
}

// primeCSRF fetches the configured page once so the backend sets its CSRF cookie.
// Failures are logged and ignored; token-authenticated endpoints work without it.
func (s *BackendService) primeCSRF(ctx context.Context) {
	if s.csrfPrimePath == "" || s.CSRFToken() != "" {
		return
	}

	s.mu.Lock()
	if s.primed {
		s.mu.Unlock()
		return
	}
	s.primed = true
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Origin()+s.csrfPrimePath, nil)
	if err != nil {
		return
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("csrf prime failed", "err", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if s.CSRFToken() == "" {
		s.logger.Debug("backend did not set a csrf cookie", "path", s.csrfPrimePath)
	}
}
