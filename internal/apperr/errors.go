package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid")
	ErrPersist      = errors.New("persist failed")
	ErrNoSession    = errors.New("no open session")
	ErrNotConfirmed = errors.New("confirmation required")
)
