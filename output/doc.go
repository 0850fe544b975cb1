// Package output provides formatters for writing query results to
// various output formats.
//
// This package defines the Formatter interface and provides
// implementations for common output formats. All formatters accept the
// result sequence a query execution produces: bare values, value
// tuples, or record views keyed by column name.
//
// # Supported Formats
//
//   - JSON Lines: one JSON value per line (suitable for streaming)
//   - CSV: comma-separated values with header row
//   - Table: aligned plain-text table for terminals
//
// # Basic Usage
//
// Using the JSON formatter:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(results); err != nil {
//	    log.Fatal(err)
//	}
//
// Using the table formatter:
//
//	formatter := output.NewTableFormatter(os.Stdout)
//	if err := formatter.Format(results); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewCSVFormatter(os.Stdout)
//
//	file, err := os.Create("results.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(results); err != nil {
//	    log.Fatal(err)
//	}
//
// # Formatter Interface
//
// Implement custom formatters by satisfying the Formatter interface:
//
//	type Formatter interface {
//	    Format(results []interface{}) error
//	    SetOutput(w io.Writer)
//	}
//
// # Result Shapes
//
// The tabular formatters derive columns from the result shape: record
// views use their column names (sorted for a stable header), tuples
// get positional col0..colN names, and bare values a single "value"
// column. The JSON formatter preserves each result's shape as-is.
package output
