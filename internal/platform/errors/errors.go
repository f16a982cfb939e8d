package apperrors

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrMissingColumn = errors.New("required column missing")
	ErrInvalidConfig = errors.New("invalid configuration")
)
