package repository

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrNegativeBase     = errors.New("base rating must not be negative")
	ErrWinnerOutOfRange = errors.New("winner index out of range")
)
