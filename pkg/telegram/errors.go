package telegram

import (
	"errors"
	"fmt"

	"github.com/runixer/botapi/pkg/hydrate"
)

// ErrPrecondition is wrapped by every error returned when a request violates a
// documented API constraint. Such requests are rejected before any network I/O.
var ErrPrecondition = errors.New("telegram: precondition failed")

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// APIResponse is the envelope every Bot API response is wrapped in. The
// result itself is handed out as a raw value and hydrated by the caller.
type APIResponse struct {
	Ok          bool                `json:"ok"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
	hydrate.Passthrough
}

// ResponseParameters describes why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
	hydrate.Passthrough
}

func (r *APIResponse) apiError(method string) *APIError {
	e := &APIError{Method: method}
	if r == nil {
		return e
	}
	e.Code = r.ErrorCode
	e.Description = r.Description
	if r.Parameters != nil {
		e.RetryAfter = r.Parameters.RetryAfter
		e.MigrateToChatID = r.Parameters.MigrateToChatID
	}
	return e
}

// TransportError is returned when the server answers with anything other than
// "200 OK". When the body still carries an error envelope it is exposed as API,
// so errors.As(err, **APIError) matches both failure kinds.
type TransportError struct {
	Method      string
	StatusCode  int
	Status      string
	Description string
	Body        []byte
	API         *APIError
}

func (e *TransportError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram: %s: http %s: %s", e.Method, e.Status, e.Description)
	}
	return fmt.Sprintf("telegram: %s: http %s", e.Method, e.Status)
}

func (e *TransportError) Unwrap() error {
	if e.API == nil {
		return nil
	}
	return e.API
}

// APIError is returned when the response envelope reports ok=false.
type APIError struct {
	Method          string
	Code            int
	Description     string
	RetryAfter      int
	MigrateToChatID int64
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error: %s: %d %s", e.Method, e.Code, e.Description)
}
