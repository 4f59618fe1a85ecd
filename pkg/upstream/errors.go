package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ResponseError is a non-2xx answer from the marketplace API.
type ResponseError struct {
	Method  string
	URL     string
	Status  int
	Message string
	Body    []byte
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s %s: %d: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status of the response.
func (e *ResponseError) StatusCode() int { return e.Status }

// BodyMessage returns the server-provided message, if any.
func (e *ResponseError) BodyMessage() string { return e.Message }

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// bodyMessage extracts "message", falling back to "error", from a JSON body.
func bodyMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(eb.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(eb.Error)
}

func newResponseError(method, url string, status int, body []byte) *ResponseError {
	return &ResponseError{
		Method:  method,
		URL:     url,
		Status:  status,
		Message: bodyMessage(body),
		Body:    body,
	}
}

// IsFailure reports whether err should count against the upstream's
// circuit breaker. Caller errors (4xx) and caller cancellation do not.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	return 0
}
