package dataset

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMalformedRow      = errors.New("malformed dataset row")
	ErrMissingColumn     = errors.New("missing dataset column")
)
