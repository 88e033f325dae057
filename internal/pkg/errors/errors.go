package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources. Object store
	// and repo implementations wrap it so callers can errors.Is on it.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
