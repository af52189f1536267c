package service

import "errors"

// Errors returned by PlaceService. Store and provider failures are returned
// wrapped as they are, so callers can tell "nothing matched" from "lookup failed".
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownCity  = errors.New("unknown city")
	ErrNotFound     = errors.New("not found")
)
