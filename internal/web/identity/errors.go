package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrCredential covers rejected credentials: wrong password, unknown or
	// already registered email, password policy failures, and revoked
	// sessions.
	ErrCredential = errors.New("identity: credentials rejected")

	// ErrProviderUnavailable means the identity service could not be reached
	// or failed to complete the request.
	ErrProviderUnavailable = errors.New("identity: provider unavailable")
)

// Codes the identity service reports for rejected credentials.
var credentialCodes = map[string]string{
	"EMAIL_EXISTS":              "An account with this email already exists.",
	"EMAIL_NOT_FOUND":           "Invalid email or password.",
	"INVALID_PASSWORD":          "Invalid email or password.",
	"INVALID_LOGIN_CREDENTIALS": "Invalid email or password.",
	"INVALID_EMAIL":             "Please enter a valid email address.",
	"MISSING_EMAIL":             "Please enter your email address.",
	"MISSING_PASSWORD":          "Please enter your password.",
	"WEAK_PASSWORD":             "Password should be at least 6 characters.",
	"USER_DISABLED":             "This account has been disabled.",

	// Refresh grant rejections: the session is gone and the user has to
	// sign in again.
	"TOKEN_EXPIRED":         "Your session has expired. Please sign in again.",
	"INVALID_REFRESH_TOKEN": "Your session has expired. Please sign in again.",
	"USER_NOT_FOUND":        "This account no longer exists.",
	"INVALID_ID_TOKEN":      "Your session has expired. Please sign in again.",
	"MISSING_REFRESH_TOKEN": "Your session has expired. Please sign in again.",
}

// ServiceError is an error response from the identity service.
type ServiceError struct {
	Op         string
	StatusCode int
	Code       string // e.g. "EMAIL_EXISTS"
	Detail     string // text after "CODE : ", if any

	kind error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("identity: %s: %s", e.Op, e.Code)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.kind }

// Message is a user-facing description of the failure.
func (e *ServiceError) Message() string {
	if m, ok := credentialCodes[e.Code]; ok {
		return m
	}
	return "The sign-in service is unavailable. Please try again."
}

// UserMessage maps any provider error to text fit for a form.
func UserMessage(err error) string {
	var se *ServiceError
	switch {
	case errors.As(err, &se):
		return se.Message()
	case errors.Is(err, ErrCredential):
		return "Invalid email or password."
	default:
		return "The sign-in service is unavailable. Please try again."
	}
}

// errorBody is the identity service's JSON error envelope.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newServiceError(op string, status int, body *errorBody) *ServiceError {
	raw := ""
	if body != nil {
		raw = body.Error.Message
	}

	code, detail, _ := strings.Cut(raw, " : ")
	code = strings.TrimSpace(code)
	if code == "" {
		code = http.StatusText(status)
	}

	e := &ServiceError{
		Op:         op,
		StatusCode: status,
		Code:       code,
		Detail:     strings.TrimSpace(detail),
		kind:       ErrProviderUnavailable,
	}
	if _, ok := credentialCodes[code]; ok && status < http.StatusInternalServerError {
		e.kind = ErrCredential
	}
	return e
}
