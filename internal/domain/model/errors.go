package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them through errors.Is.
var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrEmptyPool         = errors.New("empty pool")
	ErrUnknownKey        = errors.New("unknown key")
	ErrInvalidPointCount = errors.New("invalid point count")
)

// InsufficientDataError reports an empty or malformed series.
type InsufficientDataError struct {
	SubjectID string
	MetricID  string
	Reason    string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: subject %q metric %q: %s", ErrInsufficientData, e.SubjectID, e.MetricID, e.Reason)
}

// Is reports whether target is ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// EmptyPoolError reports a group with no values in the requested window.
type EmptyPoolError struct {
	GroupID  string
	MetricID string
}

func (e *EmptyPoolError) Error() string {
	return fmt.Sprintf("%s: group %q metric %q", ErrEmptyPool, e.GroupID, e.MetricID)
}

// Is reports whether target is ErrEmptyPool.
func (e *EmptyPoolError) Is(target error) bool { return target == ErrEmptyPool }

// UnknownKeyError reports a subject, metric or group absent from the input.
// Empty fields mean the key was not part of the lookup.
type UnknownKeyError struct {
	SubjectID string
	MetricID  string
	GroupID   string
}

func (e *UnknownKeyError) Error() string {
	switch {
	case e.GroupID != "":
		return fmt.Sprintf("%s: group %q", ErrUnknownKey, e.GroupID)
	case e.SubjectID == "":
		return fmt.Sprintf("%s: metric %q", ErrUnknownKey, e.MetricID)
	default:
		return fmt.Sprintf("%s: subject %q metric %q", ErrUnknownKey, e.SubjectID, e.MetricID)
	}
}

// Is reports whether target is ErrUnknownKey.
func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnknownKey }
