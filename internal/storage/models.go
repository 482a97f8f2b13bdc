package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a record with the same identity already exists.
var ErrConflict = errors.New("already exists")
