// Package apperr holds the error kinds shared by every domain package.
// Specific errors are built with New so the transport layer can classify
// them with errors.Is.
package apperr

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUpstream          = errors.New("upstream failure")
	ErrInternal          = errors.New("internal error")
)

// Kind returns the sentinel err wraps, or ErrInternal when it wraps none.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation, ErrNotFound, ErrUnauthorized, ErrForbidden,
		ErrConflict, ErrInsufficientFunds, ErrUpstream,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Error carries a caller-facing message while unwrapping to its kind.
type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error { return &Error{kind: kind, msg: msg} }

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }
