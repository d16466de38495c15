package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrMalformedPayload      = errors.New("malformed provider payload")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
