// Package domainerrors defines the coded errors services hand to callers.
//
// Stores speak pkg/platform/sentinel; services translate those facts plus
// their own business rules into a DomainError with a stable Code so callers
// (and the HTTP layer) can branch without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a stable failure kind. Codes are part of the API surface:
// clients branch on them, so renaming one is a breaking change.
type Code string

const (
	// Generic kinds.
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal"
	CodeUnavailable  Code = "unavailable"

	// Identity lifecycle.
	CodeAlreadyExists Code = "already_exists"
	CodeInvalidSecret Code = "invalid_secret"
	CodeInactive      Code = "inactive"
	CodeRoleMismatch  Code = "role_mismatch"

	// One-time codes.
	CodeInvalidCode    Code = "invalid_code"
	CodeCodeExpired    Code = "code_expired"
	CodeCodeUsed       Code = "code_already_used"
	CodeCodeStillValid Code = "code_still_valid"
	CodeDeliveryFailed Code = "delivery_failed"

	// Voice matching.
	CodeNoVoiceInput          Code = "no_voice_input"
	CodeVoiceMismatch         Code = "voice_mismatch"
	CodeDimensionMismatch     Code = "dimension_mismatch"
	CodeExtractionFailed      Code = "extraction_failed"
	CodeVoiceProcessingFailed Code = "voice_processing_failed"
	CodeVoiceAuthNotEnabled   Code = "voice_auth_not_enabled"
	CodeVoiceAlreadyEnabled   Code = "voice_already_enabled"
	CodeVoiceAlreadyDisabled  Code = "voice_already_disabled"

	// Sessions.
	CodeNoAuthenticatedUser Code = "no_authenticated_user"
	CodeInvalidToken        Code = "invalid_token"
	CodeTokenExpired        Code = "token_expired"
	CodeTokenRevoked        Code = "token_revoked"
	CodeSubjectMismatch     Code = "subject_mismatch"
)

// DomainError couples a Code with a human-readable message and an optional cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New builds a DomainError with no underlying cause.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// CodeOf returns the outermost DomainError code, or CodeInternal when err is
// not a DomainError.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer should send.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidCode, CodeDimensionMismatch, CodeNoVoiceInput:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidSecret, CodeVoiceMismatch, CodeNoAuthenticatedUser,
		CodeInvalidToken, CodeTokenExpired, CodeTokenRevoked, CodeSubjectMismatch:
		return http.StatusUnauthorized
	case CodeForbidden, CodeInactive, CodeRoleMismatch, CodeVoiceAuthNotEnabled:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyExists, CodeCodeUsed, CodeCodeStillValid,
		CodeVoiceAlreadyEnabled, CodeVoiceAlreadyDisabled:
		return http.StatusConflict
	case CodeCodeExpired:
		return http.StatusGone
	case CodeDeliveryFailed, CodeExtractionFailed, CodeVoiceProcessingFailed, CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
