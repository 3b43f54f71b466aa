// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds
const (
	OperationCoercionFailed = "type_coercion_failed"
	OperationDefaulted      = "default_substitution"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	RunID             string      // Ingest run identifier
	Dataset           string      // Logical dataset name
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          interface{} // Value after cleaning (nil when coerced to missing)
	RowIdentifier     string      // Zero-based row index in the cleaned table
	CleaningOperation string      // Type of cleaning performed (e.g., "type_coercion_failed")
	CleaningReason    string      // Reason for cleaning (e.g., "cannot_convert_to_float: ...")
	CleanedAt         time.Time
}
