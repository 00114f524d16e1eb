package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrKindIndexLoad marks a failure to load the facet kind index. Resolution
	// is impossible without the index, so this one propagates instead of being
	// logged and skipped.
	ErrKindIndexLoad = errors.New("facet kind index load failed")
)
