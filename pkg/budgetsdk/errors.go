package budgetsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned for any 401. By the time the caller sees
	// it the credentials are cleared and the login redirect is issued.
	ErrUnauthorized = errors.New("budgetsdk: unauthorized")

	// ErrRequestFailed covers every other non-2xx status, transport errors
	// and malformed payloads.
	ErrRequestFailed = errors.New("budgetsdk: request failed")

	// ErrInvalidInput is returned before any request is sent.
	ErrInvalidInput = errors.New("budgetsdk: invalid input")
)

// APIError describes a failed call. It matches ErrUnauthorized or
// ErrRequestFailed with errors.Is, and the underlying cause when there is
// one.
type APIError struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Detail     string

	kind  error
	cause error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return fmt.Sprintf("%v: %s", e.kind, b.String())
}

func (e *APIError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Detail returns the server's explanation for err, or "" if it has none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// detailFrom reads FastAPI's {"detail": ...} body. detail is either a
// string or a list of validation errors with a msg each.
func detailFrom(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
