package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a uniqueness rule,
	// such as a second active booking for the same user and trip.
	ErrDuplicate = errors.New("entity already exists")
)
