// Utilities for lifting a browser session out of a "Copy as cURL" command.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`curl\s+(?:'(https?://[^']+)'|"(https?://[^"]+)"|(https?://\S+))|\s(https?://\S+)`)
)

// CurlSession holds the headers, cookie string and target URL of a parsed cURL command.
type CurlSession struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts the session.
func ParseCurlFile(filepath string) (*CurlSession, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers, cookies and URL from a cURL command string.
//
// Cookies given with -b win over a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlSession, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		cookie = firstGroup(m)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	var target string
	if m := curlURLRegex.FindStringSubmatch(curlCmd); m != nil {
		target = firstGroup(m)
	}

	return &CurlSession{URL: target, Headers: headers, Cookie: cookie}, nil
}

// Header looks a header up case-insensitively.
func (c *CurlSession) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Cookies splits the cookie string into [http.Cookie] values. Malformed pairs are skipped.
func (c *CurlSession) Cookies() []*http.Cookie {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// CSRFToken returns the named cookie's value, falling back to an explicit CSRF header.
func (c *CurlSession) CSRFToken(cookieName, headerName string) string {
	for _, ck := range c.Cookies() {
		if ck.Name == cookieName {
			return ck.Value
		}
	}
	return c.Header(headerName)
}

// BearerToken returns the token of an "Authorization: Bearer ..." header, if any.
func (c *CurlSession) BearerToken() string {
	auth := c.Header("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
