package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoMetric        = errors.New("no metric selected")
)
