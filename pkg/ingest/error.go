package ingest

import (
	"errors"
	"fmt"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionSkipDataset indicates the current dataset should be skipped
	ActionSkipDataset
	// ActionAbort indicates the entire run should be aborted
	ActionAbort
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionSkipDataset:
		return "SkipDataset"
	case ActionAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// Source file absent; the dataset is skipped
	ErrorCategoryMissingFile
	// A value could not be coerced; it becomes null and is audited
	ErrorCategoryCoercionFailure
	// Source file unreadable, malformed, or missing a required column
	ErrorCategoryReadFailure
	// Output could not be written or failed verification
	ErrorCategoryWriteFailure
	// Cleaning operations could not be recorded
	ErrorCategoryAuditFailure
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryMissingFile:
		return "MissingFile"
	case ErrorCategoryCoercionFailure:
		return "CoercionFailure"
	case ErrorCategoryReadFailure:
		return "ReadFailure"
	case ErrorCategoryWriteFailure:
		return "WriteFailure"
	case ErrorCategoryAuditFailure:
		return "AuditFailure"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ActionFor returns the action the driver takes for a category
func ActionFor(category ErrorCategory) Action {
	switch category {
	case ErrorCategoryNone, ErrorCategoryCoercionFailure:
		return ActionContinue
	case ErrorCategoryMissingFile:
		return ActionSkipDataset
	default:
		return ActionAbort
	}
}

// DatasetError is returned by Run when a dataset fails
type DatasetError struct {
	Category ErrorCategory
	Dataset  string
	Path     string
	Err      error
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("[%s] dataset %s (%s): %v", e.Category, e.Dataset, e.Path, e.Err)
}

func (e *DatasetError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category carried by err, ErrorCategoryNone for nil
// and ErrorCategoryReadFailure for errors that are not a DatasetError.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	var dsErr *DatasetError
	if errors.As(err, &dsErr) {
		return dsErr.Category
	}
	return ErrorCategoryReadFailure
}

func newDatasetError(category ErrorCategory, ds Dataset, err error) *DatasetError {
	return &DatasetError{
		Category: category,
		Dataset:  ds.Name,
		Path:     ds.Path,
		Err:      err,
	}
}
