package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// NetworkError indicates that no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CorsError indicates the server answered but did not allow the configured
// origin.
type CorsError struct {
	Origin  string
	Allowed string
}

func (e *CorsError) Error() string {
	if e.Allowed == "" {
		return fmt.Sprintf("cross-origin request from %s rejected: no Access-Control-Allow-Origin header", e.Origin)
	}
	return fmt.Sprintf("cross-origin request from %s rejected: server allows %s", e.Origin, e.Allowed)
}

// AuthExpiredError is returned on HTTP 401. By the time the caller sees it the
// stored credential has already been cleared.
type AuthExpiredError struct {
	Body []byte
}

func (e *AuthExpiredError) Error() string {
	return "authentication expired (401)"
}

// ServiceUnavailableError is returned on HTTP 503. It is transient.
type ServiceUnavailableError struct {
	RetryAfter time.Duration
	Body       []byte
}

func (e *ServiceUnavailableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("service unavailable (503, retry after %s)", e.RetryAfter)
	}
	return "service unavailable (503)"
}

// HTTPError covers every other non-2xx status.
type HTTPError struct {
	Status  int
	Body    []byte
	Message string // server-provided "message" or "error" field, if any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// InvalidResponseError indicates a 2xx response whose body could not be
// mapped onto the expected schema.
type InvalidResponseError struct {
	Route string
	Body  []byte
	Err   error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Route, e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// serverMessage extracts the "message" or "error" field of a JSON error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Message returns a human-readable description of err suitable for showing
// to the learner. Every error kind maps to a non-empty message.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		netErr   *NetworkError
		corsErr  *CorsError
		authErr  *AuthExpiredError
		unavail  *ServiceUnavailableError
		httpErr  *HTTPError
		invalid  *InvalidResponseError
		msgError interface{ UserMessage() string }
	)

	switch {
	case errors.As(err, &msgError):
		return msgError.UserMessage()
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer. Please try again."
	case errors.As(err, &authErr):
		return "Session expired. Please log in again."
	case errors.As(err, &unavail):
		return "The server is temporarily unavailable. Please try again in a few moments."
	case errors.As(err, &corsErr):
		return "The server does not accept requests from this origin. Check the backend CORS configuration."
	case errors.As(err, &netErr):
		return "Could not reach the server. Check your internet connection."
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return statusMessage(httpErr.Status)
	case errors.As(err, &invalid):
		return "The server sent an unexpected response."
	}
	return err.Error()
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request."
	case http.StatusForbidden:
		return "Access denied."
	case http.StatusNotFound:
		return "Resource not found."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	}
	return fmt.Sprintf("Unexpected server response (HTTP %d).", status)
}

// IsTransient reports whether err may succeed if the same call is repeated.
func IsTransient(err error) bool {
	var netErr *NetworkError
	var unavail *ServiceUnavailableError
	return errors.As(err, &netErr) || errors.As(err, &unavail)
}
