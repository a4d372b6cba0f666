package entity

import "errors"

// Domain-level sentinel errors shared by the stores and use cases.
var (
	// ErrNotFound indicates that a requested record does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey indicates a write that would violate the composite
	// cache key uniqueness (tag, url, region).
	ErrDuplicateKey = errors.New("duplicate composite key")
)
