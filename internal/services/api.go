// Raw access to the backend for debugging
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw sends method to path (relative to the backend origin, e.g. "/api/user/") and returns the
// response whatever its status. Session, CSRF and rate limiting apply as for typed calls.
func (s *BackendService) Raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if isMutating(method) {
		s.primeCSRF(ctx)
	}

	var body io.Reader
	if len(data) > 0 {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.Origin()+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if isMutating(method) {
		if token := s.CSRFToken(); token != "" {
			req.Header.Set(s.csrfHeader, token)
		}
		req.Header.Set("Referer", s.Origin()+"/")
	}
	if err := s.authorize(req); err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// Get performs a raw GET.
func (s *BackendService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return s.Raw(ctx, http.MethodGet, path, nil)
}

// Post performs a raw POST with a JSON body.
func (s *BackendService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return s.Raw(ctx, http.MethodPost, path, data)
}
