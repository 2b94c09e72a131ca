package summary

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidWindow = errors.New("invalid time window")
)
