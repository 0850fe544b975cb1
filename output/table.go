package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableFormatter outputs results as an aligned plain-text table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders results as a table with a header row
func (t *TableFormatter) Format(results []interface{}) error {
	columns, rows := tabulate(results)
	if len(columns) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()

	return nil
}
