package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the mapper classifies.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
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
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewInvalidCredentials is the single error returned for a login attempt that
// fails for any reason. Unknown email and wrong password are indistinguishable
// to the caller so the response shape cannot be used to enumerate accounts.
func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized, nil)
}

// NewInvalidToken covers malformed, expired, tampered and wrong-kind tokens.
// The distinction is deliberately not surfaced.
func NewInvalidToken() error {
	return NewDomainError("INVALID_TOKEN", "invalid or expired token", http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Storage failures are
// classified so that no raw driver error ever reaches a caller: missing rows
// become NOT_FOUND, unique violations become CONFLICT, foreign-key and
// cast failures become VALIDATION_FAILED, anything else INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return mustDomain(NewNotFound("resource", nil))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return mustDomain(NewConflict("duplicate value", map[string]any{"constraint": pgErr.ConstraintName}))
		case pgForeignKeyViolation:
			return mustDomain(NewValidationError("invalid reference", map[string]any{"constraint": pgErr.ConstraintName}))
		case pgInvalidTextRepr:
			return mustDomain(NewValidationError("invalid identifier", nil))
		}
	}
	return mustDomain(NewInternalError(err))
}

// MapError converts generic errors to DomainError as an error value.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func mustDomain(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return &DomainError{Code: "INTERNAL_ERROR", Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
