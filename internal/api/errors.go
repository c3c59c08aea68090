package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents a standardised error response
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorCode represents standard error codes
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorised     ErrorCode = "UNAUTHORISED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"

	// Server errors (5xx)
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error body formats
const (
	ErrorFormatPlain = "plain"
	ErrorFormatJSON  = "json"
)

// ErrorEncoder renders an ErrorResponse into a response body
type ErrorEncoder interface {
	ContentType() string
	Encode(w io.Writer, resp ErrorResponse) error
}

// PlainTextErrorEncoder writes the bare message as text/plain
type PlainTextErrorEncoder struct{}

func (PlainTextErrorEncoder) ContentType() string { return "text/plain; charset=utf-8" }

func (PlainTextErrorEncoder) Encode(w io.Writer, resp ErrorResponse) error {
	_, err := fmt.Fprintln(w, resp.Message)
	return err
}

// JSONErrorEncoder writes the full ErrorResponse as JSON
type JSONErrorEncoder struct{}

func (JSONErrorEncoder) ContentType() string { return "application/json" }

func (JSONErrorEncoder) Encode(w io.Writer, resp ErrorResponse) error {
	return json.NewEncoder(w).Encode(resp)
}

var errorEncoder ErrorEncoder = PlainTextErrorEncoder{}

// SetErrorEncoder replaces the encoder used for every error response.
// Call it during startup, before the server accepts requests.
func SetErrorEncoder(enc ErrorEncoder) {
	if enc == nil {
		enc = PlainTextErrorEncoder{}
	}
	errorEncoder = enc
}

// ErrorEncoderFor returns the encoder for a configured format name
func ErrorEncoderFor(format string) (ErrorEncoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ErrorFormatPlain:
		return PlainTextErrorEncoder{}, nil
	case ErrorFormatJSON:
		return JSONErrorEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown error format %q", format)
	}
}

// WriteError writes a standardised error response
func WriteError(w http.ResponseWriter, r *http.Request, err error, status int, code ErrorCode) {
	writeErrorResponse(w, r, err, err.Error(), status, code)
}

// WriteErrorMessage writes a standardised error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, message string, status int, code ErrorCode) {
	writeErrorResponse(w, r, nil, message, status, code)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error, message string, status int, code ErrorCode) {
	requestID := GetRequestID(r)

	errResp := ErrorResponse{
		Status:    status,
		Message:   message,
		Code:      string(code),
		RequestID: requestID,
	}

	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = log.Error()
	} else {
		event = log.Warn()
	}
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", string(code)).
		Str("message", message).
		Msg("API error response")

	enc := errorEncoder
	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := enc.Encode(w, errResp); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// Common error helpers for frequent use cases

// BadRequest responds with a 400 Bad Request error
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusBadRequest, ErrCodeBadRequest)
}

// ValidationError responds with a 400 for a rejected body or query
func ValidationError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, err, http.StatusBadRequest, ErrCodeValidation)
}

// Conflict responds with a 400 for a duplicate id.
// The status matches other bad requests; only the code differs.
func Conflict(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusBadRequest, ErrCodeConflict)
}

// Unauthorised responds with a 401 Unauthorised error
func Unauthorised(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusUnauthorized, ErrCodeUnauthorised)
}

// Forbidden responds with a 403 Forbidden error
func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusForbidden, ErrCodeForbidden)
}

// NotFound responds with a 404 Not Found error
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusNotFound, ErrCodeNotFound)
}

// MethodNotAllowed responds with a 405 and the Allow header
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	WriteErrorMessage(w, r, "Method not allowed", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
}

// InternalError responds with a 500 Internal Server Error and reports it to Sentry
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("request_id", GetRequestID(r))
		scope.SetTag("path", r.URL.Path)
		sentry.CaptureException(err)
	})
	writeErrorResponse(w, r, err, "Internal server error", http.StatusInternalServerError, ErrCodeInternal)
}
