// ABOUTME: Error taxonomy for backend calls
// ABOUTME: Classifies transport failures and non-2xx responses, keeping the backend payload intact
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server_error"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrTransport    = errors.New("transport error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrServer       = errors.New("server error")
)

// Error is returned for every failed call. StatusCode is zero for transport
// failures and for requests rejected before they were sent.
type Error struct {
	Kind        Kind
	StatusCode  int
	Method      string
	Path        string
	Message     string
	FieldErrors map[string]string
	TraceID     string
	// Body is the backend's error payload exactly as received.
	Body json.RawMessage
	Err  error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}

	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
	case e.Method != "":
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// KindOf returns the kind of err, or zero if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Absent reports whether a delete outcome leaves the entity gone: either the
// delete succeeded or the backend no longer knows the id.
func Absent(err error) bool {
	return err == nil || IsNotFound(err)
}

// NewValidationError wraps a locally detected problem so it matches ErrValidation.
func NewValidationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	}
	return KindValidation
}

// errorPayload covers the error bodies the MBG backends produce:
// {success, message, statusCode, traceId, validationErrors, timestamp} and
// {success, error: {code, message, details} | "text", meta: {trace_id}}.
// Some gateway responses use errors instead of validationErrors.
type errorPayload struct {
	Message          string            `json:"message"`
	TraceID          string            `json:"traceId"`
	ValidationErrors map[string]string `json:"validationErrors"`
	Errors           map[string]string `json:"errors"`
	Error   json.RawMessage   `json:"error"`
	Meta    struct {
		TraceID string `json:"trace_id"`
	} `json:"meta"`
}

type nestedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func newStatusError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Method:     method,
		Path:       path,
	}
	if len(body) > 0 {
		e.Body = json.RawMessage(append([]byte(nil), body...))
	}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Message = http.StatusText(status)
		return e
	}

	e.Message = payload.Message
	e.FieldErrors = payload.ValidationErrors
	if len(e.FieldErrors) == 0 {
		e.FieldErrors = payload.Errors
	}
	e.TraceID = payload.TraceID
	if e.TraceID == "" {
		e.TraceID = payload.Meta.TraceID
	}

	if len(payload.Error) > 0 {
		var text string
		var nested nestedError
		switch {
		case json.Unmarshal(payload.Error, &text) == nil:
			if e.Message == "" {
				e.Message = text
			}
		case json.Unmarshal(payload.Error, &nested) == nil:
			if e.Message == "" {
				e.Message = nested.Message
			}
			if nested.Details != "" && e.FieldErrors == nil {
				e.FieldErrors = map[string]string{"details": nested.Details}
			}
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
