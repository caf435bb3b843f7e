package core

import (
	"errors"
	"fmt"
)

// Errors returned by loading and filtering. Callers should test with
// errors.Is; returned errors wrap these with the offending path, lengths or
// column name.
var (
	// ErrSourceNotFound is returned when the source file cannot be opened or read.
	ErrSourceNotFound = errors.New("source not found")

	// ErrNotLoaded is returned when filtering is attempted before a successful load.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrArityMismatch is returned when the column and value lists differ in length.
	ErrArityMismatch = errors.New("column and value count mismatch")

	// ErrUnknownColumn is returned when a constraint names an absent column.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidTolerance is returned for a negative or NaN numeric tolerance.
	ErrInvalidTolerance = errors.New("invalid tolerance")

	// ErrInvalidCSV is returned when the source is not well-formed delimited text.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrEmptyFile is returned when the source has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when the source exceeds the loader's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDatasetNotFound is returned when no catalog entry has the requested ID.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// UnknownColumnError names the first constraint column absent from a table.
type UnknownColumnError struct {
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

func (e *UnknownColumnError) Unwrap() error {
	return ErrUnknownColumn
}
