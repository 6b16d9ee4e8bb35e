package store

import "errors"

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate means an insert hit an existing unique key. Callers treat
	// this as a successful no-op: dedup is a feature, not a fault.
	ErrDuplicate = errors.New("store: duplicate key")
)
