package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidYear  = fmt.Errorf("Year should be a valid number between %d and %d", MinYear, MaxYear)
	ErrMissingField = errors.New("missing required field")
	ErrNotFound     = errors.New("book not found")
)

// StoreError is returned by Library implementations when the backing
// database fails. It never wraps ErrNotFound.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
