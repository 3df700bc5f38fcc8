package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Sentinel conditions shared across layers. Wrap them with fmt.Errorf("...: %w")
// and ToDomainError maps them to the matching code.
var (
	ErrAuthenticationFailed    = errors.New("authentication failed")
	ErrProfileResolutionFailed = errors.New("profile resolution failed")
	ErrAuthorizationDenied     = errors.New("authorization denied")
	ErrUpstreamRequestFailed   = errors.New("upstream request failed")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
		Err:        ErrNotFound,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return &DomainError{Code: "CONFLICT", Message: message, HTTPStatus: http.StatusConflict, Details: details, Err: ErrConflict}
}

// NewAuthenticationFailed reports bad credentials.
func NewAuthenticationFailed(message string) error {
	return &DomainError{Code: "AUTHENTICATION_FAILED", Message: message, HTTPStatus: http.StatusUnauthorized, Err: ErrAuthenticationFailed}
}

// NewProfileResolutionFailed reports a session whose profile could not be resolved.
func NewProfileResolutionFailed(err error) error {
	return &DomainError{Code: "PROFILE_RESOLUTION_FAILED", Message: "profile could not be resolved", HTTPStatus: http.StatusUnauthorized, Err: withSentinel(ErrProfileResolutionFailed, err)}
}

// NewAuthorizationDenied reports a role lacking access to a screen or action.
func NewAuthorizationDenied(message string) error {
	return &DomainError{Code: "AUTHORIZATION_DENIED", Message: message, HTTPStatus: http.StatusForbidden, Err: ErrAuthorizationDenied}
}

// NewUpstreamFailed wraps a store or network failure.
func NewUpstreamFailed(err error) error {
	return &DomainError{Code: "UPSTREAM_REQUEST_FAILED", Message: "upstream request failed", HTTPStatus: http.StatusBadGateway, Err: withSentinel(ErrUpstreamRequestFailed, err)}
}

func withSentinel(sentinel, err error) error {
	switch {
	case err == nil:
		return sentinel
	case errors.Is(err, sentinel):
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message, HTTPStatus: fiberErr.Code}
	}

	var mapped error
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		mapped = NewAuthenticationFailed("invalid credentials")
	case errors.Is(err, ErrProfileResolutionFailed):
		mapped = NewProfileResolutionFailed(err)
	case errors.Is(err, ErrAuthorizationDenied):
		mapped = NewAuthorizationDenied("access denied")
	case errors.Is(err, ErrUpstreamRequestFailed):
		mapped = NewUpstreamFailed(err)
	case errors.Is(err, ErrConflict):
		mapped = NewConflict(err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		mapped = NewNotFound("resource", nil)
	default:
		mapped = NewInternalError(err)
	}
	errors.As(mapped, &domainErr)
	return domainErr
}

func MapError(err error) error {
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "AUTHORIZATION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
