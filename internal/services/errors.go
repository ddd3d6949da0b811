package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/desertthunder/figx/internal/shared"
)

// Messages shown to users. They are part of the user-facing contract and must not change.
const (
	MsgUnauthorized = "Please log in to continue"
	MsgForbidden    = "You do not have permission to perform this action"
	MsgNotFound     = "Resource not found"
	MsgNetwork      = "Network error. Please check your connection"
	MsgUnexpected   = "An unexpected error occurred"
)

// ErrorKind classifies a failed backend request.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidationFailed
	KindNetworkUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindValidationFailed:
		return "validation failed"
	case KindNetworkUnreachable:
		return "network unreachable"
	default:
		return "unknown"
	}
}

// kindForStatus maps an HTTP status to an [ErrorKind].
func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidationFailed
	default:
		return KindUnknown
	}
}

// RequestFailed is the single error type every gateway operation returns on failure.
type RequestFailed struct {
	Kind   ErrorKind
	Status int // zero when no response arrived
	Method string
	Path   string
	// Message is the server-provided explanation: the "error" field when present,
	// otherwise every field message flattened in document order.
	Message string
	Err     error
}

func (e *RequestFailed) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	fmt.Fprintf(&b, ": %s", e.Kind)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the matching shared sentinel and the transport error, if any.
func (e *RequestFailed) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *RequestFailed) sentinel() error {
	switch e.Kind {
	case KindUnauthorized:
		return shared.ErrNotAuthenticated
	case KindForbidden:
		return shared.ErrForbidden
	case KindNotFound:
		return shared.ErrNotFound
	case KindValidationFailed:
		return shared.ErrInvalidInput
	case KindNetworkUnreachable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// UserMessage returns the text shown to the user for this failure.
//
// Status-specific messages win over anything the server sent, then the
// server's own message, then a generic fallback.
func (e *RequestFailed) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return MsgUnauthorized
	case KindForbidden:
		return MsgForbidden
	case KindNotFound:
		return MsgNotFound
	case KindNetworkUnreachable:
		return MsgNetwork
	}
	if e.Message != "" {
		return e.Message
	}
	return MsgUnexpected
}

// DisplayMessage maps any error from this package to the text a painter should show.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.UserMessage()
	}

	switch {
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrRefreshFailed),
		errors.Is(err, shared.ErrNoRefreshToken),
		errors.Is(err, shared.ErrNoSession):
		return MsgUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return MsgForbidden
	case errors.Is(err, shared.ErrNotFound):
		return MsgNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return MsgNetwork
	}
	return MsgUnexpected
}

// newRequestFailed builds a [RequestFailed] from a non-2xx response body.
func newRequestFailed(method, path string, status int, body []byte) *RequestFailed {
	return &RequestFailed{
		Kind:    kindForStatus(status),
		Status:  status,
		Method:  method,
		Path:    path,
		Message: serverMessage(body),
	}
}

// networkFailure wraps a transport error. Cancellation is passed through untouched
// so callers can tell a superseded request from an unreachable backend.
func networkFailure(method, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RequestFailed{Kind: KindNetworkUnreachable, Method: method, Path: path, Err: err}
}

// serverMessage extracts a human message from an error body: the top-level "error"
// string when present, otherwise all string leaves joined with ", " in document order.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return ""
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var msg string
		if json.Unmarshal(envelope.Error, &msg) == nil && msg != "" {
			return msg
		}
	}

	messages, err := flattenMessages(json.NewDecoder(bytes.NewReader(body)))
	if err != nil {
		return ""
	}
	return strings.Join(messages, ", ")
}

// flattenMessages walks one JSON value with the token decoder so object keys keep their order.
func flattenMessages(dec *json.Decoder) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		var out []string
		isObject := v == '{'
		for dec.More() {
			if isObject {
				if _, err := dec.Token(); err != nil {
					return nil, err
				}
			}
			inner, err := flattenMessages(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		}
		if _, err := dec.Token(); err != nil && err != io.EOF {
			return nil, err
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case nil:
		return nil, nil
	default:
		return []string{fmt.Sprint(v)}, nil
	}
}
