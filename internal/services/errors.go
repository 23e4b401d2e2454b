package services

import "errors"

// Error kinds. Every error returned for a violated precondition wraps exactly one of them.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// Error is a precondition failure with a message fit for the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(msg string) error  { return &Error{Kind: ErrNotFound, Message: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }
func conflict(msg string) error  { return &Error{Kind: ErrConflict, Message: msg} }
