package store

import (
	"errors"
	"fmt"
)

// ErrInvalidEntry is returned by TimeEntryRepository.Add for entries that
// violate the record invariants.
var ErrInvalidEntry = errors.New("invalid time entry")

// StorageError reports a failed read or write against the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// TaskNotFoundError reports a task id that does not resolve.
type TaskNotFoundError struct {
	ID int64
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// MigrationError describes one legacy record that could not be imported.
// Index is the record's position in the legacy array, -1 for the payload itself.
type MigrationError struct {
	Index int
	Err   error
}

func (e *MigrationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("legacy payload: %v", e.Err)
	}
	return fmt.Sprintf("legacy record %d: %v", e.Index, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
