package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoListings is returned when a listings source yields no rows at all.
	ErrNoListings = errors.New("no listings in input")
	// ErrInvalidWeights is returned when a weight set does not sum to 1.
	ErrInvalidWeights = errors.New("weights must sum to 1.00")
)

// FatalInputError aborts a run before any output is produced.
type FatalInputError struct {
	Source string
	Err    error
}

func (e *FatalInputError) Error() string {
	return fmt.Sprintf("fatal input %s: %v", e.Source, e.Err)
}

func (e *FatalInputError) Unwrap() error {
	return e.Err
}
