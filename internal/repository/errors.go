package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a unique constraint rejected the write.
	ErrConflict = errors.New("repository: conflict")
	// ErrInvalidReference indicates a foreign key pointed at a missing row.
	ErrInvalidReference = errors.New("repository: invalid reference")
)
