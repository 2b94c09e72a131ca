package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrInvalidKey = errors.New("invalid subject or metric id")
)
