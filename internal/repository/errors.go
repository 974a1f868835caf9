package repository

import "errors"

// ErrVersionConflict is returned when an optimistic write loses against a
// concurrent writer: the row exists but its version no longer matches.
var ErrVersionConflict = errors.New("version conflict")
