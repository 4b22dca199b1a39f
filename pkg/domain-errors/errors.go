// Package domainerrors provides coded domain errors. Services construct these
// at the point a failure becomes meaningful to a caller; transports translate
// the code into their own status vocabulary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The attestation workflow maps its failure
// taxonomy onto these: document byte reads (CodeIO), collaborator extraction
// failures (CodeExtraction), credibility scoring failures (CodeScoring),
// permit build/verify failures (CodeAuthorization), ledger broadcast failures
// (CodeCommit) and ledger read failures (CodeQuery).
type Code string

const (
	CodeIO            Code = "io_error"
	CodeExtraction    Code = "extraction_error"
	CodeScoring       Code = "scoring_error"
	CodeAuthorization Code = "authorization_error"
	CodeCommit        Code = "commit_error"
	CodeQuery         Code = "query_error"

	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeNotFound     Code = "not_found"
	CodeInvalidState Code = "invalid_state"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error carries a code, a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on code equality so sentinel-style comparisons work
// across wrapping layers.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New constructs a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause yields
// nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from err, walking the wrap chain. Unknown errors
// report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
