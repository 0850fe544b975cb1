package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write query results in the
// target format and SetOutput to change the output destination.
type Formatter interface {
	// Format writes results in the formatter's specific format
	Format(results []interface{}) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns a formatter for the named format. Supported names are
// "jsonl", "csv" and "table".
func New(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "jsonl", "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// tabulate converts a result sequence into a header and string rows
// for the tabular formatters. Record views use their column names,
// tuples positional names, anything else a single value column.
func tabulate(results []interface{}) ([]string, [][]string) {
	columns := resultColumns(results)

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		row := make([]string, len(columns))
		switch res := result.(type) {
		case map[string]interface{}:
			for i, col := range columns {
				row[i] = formatValue(res[col])
			}
		case []interface{}:
			for i := range columns {
				if i < len(res) {
					row[i] = formatValue(res[i])
				}
			}
		default:
			row[0] = formatValue(result)
		}
		rows = append(rows, row)
	}

	return columns, rows
}

// resultColumns derives the header from the result shapes. Record view
// columns are sorted so heterogeneous rows get a stable header.
func resultColumns(results []interface{}) []string {
	columnSet := make(map[string]bool)
	width := 0
	bare := false

	for _, result := range results {
		switch res := result.(type) {
		case map[string]interface{}:
			for col := range res {
				columnSet[col] = true
			}
		case []interface{}:
			if len(res) > width {
				width = len(res)
			}
		default:
			bare = true
		}
	}

	if len(columnSet) > 0 {
		columns := make([]string, 0, len(columnSet))
		for col := range columnSet {
			columns = append(columns, col)
		}
		sort.Strings(columns)
		return columns
	}

	if width > 0 {
		columns := make([]string, width)
		for i := range columns {
			columns[i] = fmt.Sprintf("col%d", i)
		}
		return columns
	}

	if bare {
		return []string{"value"}
	}
	return nil
}

// formatValue converts a value to its string form for tabular output
func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
