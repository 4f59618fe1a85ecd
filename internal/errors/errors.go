package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/pkg/circuit"
	"github.com/agrimart/storefront/pkg/errmsg"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	ErrResourceNotFound    = NewDomainError(constants.CodeResourceNotFound, "resource not found")
	ErrInvalidFilter       = NewDomainError(constants.CodeInvalidFilter, "filter not allowed for resource")
	ErrInvalidRequest      = NewDomainError(constants.CodeInvalidRequest, "invalid request")
	ErrUpstreamUnavailable = NewDomainError(constants.CodeUpstreamUnavailable, "upstream unavailable")
	ErrRateLimited         = NewDomainError(constants.CodeRateLimited, "too many requests")
	ErrInternal            = NewDomainError(constants.CodeInternalError, "internal server error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps errors to HTTP status codes. Upstream responses keep
// their status; failures without a response become 502 Bad Gateway.
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Code != constants.CodeUpstreamError {
		return domainErrorToHTTPStatus(domainErr)
	}

	var resp errmsg.Response
	if errors.As(err, &resp) {
		return resp.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, circuit.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	if domainErr != nil {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// ToCode returns the error code for the JSON error body.
func ToCode(err error) string {
	var resp errmsg.Response
	hasResponse := errors.As(err, &resp)

	if domainErr := GetDomainError(err); domainErr != nil {
		if domainErr.Code == constants.CodeUpstreamError && !hasResponse {
			return constants.CodeUpstreamUnavailable
		}
		return domainErr.Code
	}
	if hasResponse {
		return constants.CodeUpstreamError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return constants.CodeUpstreamUnavailable
	}
	return constants.CodeInternalError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case constants.CodeInvalidRequest, constants.CodeInvalidFilter:
		return http.StatusBadRequest
	case constants.CodeResourceNotFound:
		return http.StatusNotFound
	case constants.CodeRateLimited:
		return http.StatusTooManyRequests
	case constants.CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UpstreamError wraps a failed marketplace call so handlers can tell it
// apart from local faults.
func UpstreamError(err error) *DomainError {
	return &DomainError{
		Code:    constants.CodeUpstreamError,
		Message: "upstream request failed",
		Err:     err,
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
