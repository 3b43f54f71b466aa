// pkg/reader/csv.go
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// ErrTooManyFields is returned when a data row has more fields than the header
var ErrTooManyFields = errors.New("row has more fields than header")

// nullValues are the tokens read as a missing value
var nullValues = map[string]struct{}{
	"":          {},
	"#N/A":      {},
	"#N/A N/A":  {},
	"#NA":       {},
	"-1.#IND":   {},
	"-1.#QNAN":  {},
	"-NaN":      {},
	"-nan":      {},
	"1.#IND":    {},
	"1.#QNAN":   {},
	"<NA>":      {},
	"N/A":       {},
	"NA":        {},
	"NULL":      {},
	"NaN":       {},
	"None":      {},
	"n/a":       {},
	"nan":       {},
	"null":      {},
}

// ReadFile reads the CSV file at path into a table
func ReadFile(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return table, nil
}

// Read parses CSV data with a header row.
//
// Missing values become nil and every column is given the narrowest type
// that all of its present values parse as: int64, float64, bool, or string.
func Read(r io.Reader) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &model.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	names := mangleHeader(header)

	raw := make([][]string, len(names))
	present := make([][]bool, len(names))
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row: %w", err)
		}
		line++

		if len(record) > len(names) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d: %w",
				line, len(names), len(record), ErrTooManyFields)
		}

		for i := range names {
			if i < len(record) && !isNull(record[i]) {
				raw[i] = append(raw[i], record[i])
				present[i] = append(present[i], true)
			} else {
				raw[i] = append(raw[i], "")
				present[i] = append(present[i], false)
			}
		}
	}

	table := &model.Table{Columns: make([]*model.Column, len(names))}
	for i, name := range names {
		table.Columns[i] = buildColumn(name, raw[i], present[i])
	}
	table.SourceRows = table.NumRows()
	return table, nil
}

// mangleHeader names empty headers "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ...
func mangleHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if count, dup := seen[name]; dup {
			candidate := fmt.Sprintf("%s.%d", name, count)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				count++
				candidate = fmt.Sprintf("%s.%d", name, count)
			}
			seen[name] = count + 1
			name = candidate
		}
		seen[name] = 1
		names[i] = name
	}

	return names
}

// isNull determines if a raw field should be treated as missing. Any
// spelling strconv reads as NaN counts, not only the listed tokens.
func isNull(value string) bool {
	if _, ok := nullValues[value]; ok {
		return true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil && math.IsNaN(f)
}

// buildColumn infers the column type and converts the present values
func buildColumn(name string, raw []string, present []bool) *model.Column {
	typ := inferType(raw, present)
	col := model.NewColumn(name, typ, len(raw))

	for i, s := range raw {
		if !present[i] {
			col.Values = append(col.Values, nil)
			continue
		}
		col.Values = append(col.Values, convert(s, typ))
	}
	return col
}

func inferType(raw []string, present []bool) model.ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false

	for i, s := range raw {
		if !present[i] {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBoolToken(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return model.TypeString
		}
	}

	switch {
	case !seen:
		// an all-missing column has no evidence; read it as float like NaN
		return model.TypeFloat
	case isInt:
		return model.TypeInt
	case isFloat:
		return model.TypeFloat
	case isBool:
		return model.TypeBool
	default:
		return model.TypeString
	}
}

func convert(s string, typ model.ColumnType) interface{} {
	switch typ {
	case model.TypeInt:
		v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return v
	case model.TypeFloat:
		v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return v
	case model.TypeBool:
		v, _ := parseBoolToken(s)
		return v
	default:
		return s
	}
}

// parseBoolToken accepts only the literal spellings a CSV export uses for
// booleans; numeric 0/1 stay integers.
func parseBoolToken(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	default:
		return false, false
	}
}
