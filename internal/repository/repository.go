package repository

import "errors"

// ErrNotFound is returned when a row does not exist. Services translate it
// into the API-level not_found error.
var ErrNotFound = errors.New("not found")

type scanner interface {
	Scan(dest ...interface{}) error
}
