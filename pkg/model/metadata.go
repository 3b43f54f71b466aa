// pkg/model/metadata.go
package model

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type carried by every value of a column
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTimestamp
)

// String returns a string representation of the column type
func (ct ColumnType) String() string {
	switch ct {
	case TypeString:
		return "string"
	case TypeInt:
		return "int64"
	case TypeFloat:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("unknown(%d)", ct)
	}
}

// Column holds the values of a single column.
// A nil entry in Values marks a missing value; every other entry has the Go
// type matching Type (string, int64, float64, bool or time.Time).
type Column struct {
	Name   string
	Type   ColumnType
	Values []interface{}
}

// NewColumn creates an empty column with capacity for n rows
func NewColumn(name string, typ ColumnType, n int) *Column {
	return &Column{
		Name:   name,
		Type:   typ,
		Values: make([]interface{}, 0, n),
	}
}

// NullCount returns the number of missing values in the column
func (col *Column) NullCount() int {
	count := 0
	for _, v := range col.Values {
		if v == nil {
			count++
		}
	}
	return count
}

// Table is an in-memory, column-major dataset.
//
// The reader produces a Table verbatim from a CSV file; cleaners return a new
// Table with derived columns added and their source columns removed.
type Table struct {
	Name       string
	Columns    []*Column
	SourceRows int                 // Rows read from the source file
	Operations []CleaningOperation // Coercions recorded while cleaning
}

// NumRows returns the number of rows in the table
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column with the exact given name, or nil
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// HasColumn reports whether a column with the exact given name exists
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ColumnsContaining returns every column whose name contains substr,
// ignoring case, in table order.
func (t *Table) ColumnsContaining(substr string) []*Column {
	var matched []*Column
	for _, col := range t.Columns {
		if contains(col.Name, substr) {
			matched = append(matched, col)
		}
	}
	return matched
}

// SetColumn replaces the column with the same name in place, or appends it
// at the end when no such column exists.
func (t *Table) SetColumn(col *Column) error {
	if len(t.Columns) > 0 && len(col.Values) != t.NumRows() {
		return fmt.Errorf("column %q has %d values, table has %d rows",
			col.Name, len(col.Values), t.NumRows())
	}
	for i, existing := range t.Columns {
		if existing.Name == col.Name {
			t.Columns[i] = col
			return nil
		}
	}
	t.Columns = append(t.Columns, col)
	return nil
}

// DropColumns removes the named columns; names that are absent are ignored
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}

	kept := t.Columns[:0]
	for _, col := range t.Columns {
		if _, ok := drop[col.Name]; !ok {
			kept = append(kept, col)
		}
	}
	t.Columns = kept
}

// FilterRows keeps only the rows for which keep returns true
func (t *Table) FilterRows(keep func(row int) bool) {
	n := t.NumRows()
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		mask[i] = keep(i)
	}

	for _, col := range t.Columns {
		filtered := make([]interface{}, 0, n)
		for i, v := range col.Values {
			if mask[i] {
				filtered = append(filtered, v)
			}
		}
		col.Values = filtered
	}
}

func contains(s, substr string) bool {
	return strings.Contains(
		strings.ToLower(s),
		strings.ToLower(substr),
	)
}
