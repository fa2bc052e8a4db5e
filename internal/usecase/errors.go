package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrParsingNotFound  = errors.New("parsing not found")
	ErrEngineNotFound   = errors.New("engine not found in parsing")
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidInput wraps validation failures of catalog requests.
	ErrInvalidInput = errors.New("invalid input")
)

// PersistenceError marks a failure of the graph store. It is fatal to a job.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
