package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs results as JSON Lines
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON value per line, preserving each result's
// shape: record views encode as objects, tuples as arrays, bare values
// as scalars.
func (j *JSONFormatter) Format(results []interface{}) error {
	encoder := json.NewEncoder(j.writer)
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
	return nil
}
