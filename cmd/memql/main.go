package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vegasq/memql/output"
	"github.com/vegasq/memql/query"
	"github.com/vegasq/memql/reader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("memql", flag.ContinueOnError)
	flags.SetOutput(stderr)

	queryFlag := flags.String("q", "", "query (e.g. \"SELECT o.name WHERE o.age > 30\")")
	formatFlag := flags.String("f", "jsonl", "output format: jsonl, csv, table")
	limitFlag := flags.Int("limit", 0, "limit number of results (0 = unlimited)")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: memql [options] <file.parquet>\n\n")
		fmt.Fprintf(stderr, "Run queries against parquet files.\n\n")
		fmt.Fprintf(stderr, "All flags must come before the file argument.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  memql data.parquet\n")
		fmt.Fprintf(stderr, "  memql -f csv -q \"SELECT o.name, o.age WHERE o.age > 30\" data.parquet\n")
		fmt.Fprintf(stderr, "  memql -q \"SELECT DISTINCT o.dept RETURNING map\" 'data/*.parquet'\n")
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *limitFlag < 0 {
		fmt.Fprintf(stderr, "Error: -limit must be non-negative, got %d\n", *limitFlag)
		return 1
	}

	if flags.NArg() < 1 {
		fmt.Fprintf(stderr, "Error: missing parquet file argument\n\n")
		flags.Usage()
		return 1
	}
	filename := flags.Arg(0)

	// An empty -q selects every record as-is.
	queryText := *queryFlag
	if queryText == "" {
		queryText = "SELECT o"
	}

	stmt, err := query.Parse(queryText)
	if err != nil {
		reportQueryError(stderr, queryText, err)
		return 1
	}

	records, err := reader.ReadRecords(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stderr, "Error: file '%s' not found\n", filename)
			fmt.Fprintf(stderr, "Please check the file path and try again.\n")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	results, err := stmt.Exec(records)
	if err != nil {
		var evalErr *query.EvalError
		if errors.As(err, &evalErr) {
			fmt.Fprintf(stderr, "Error executing query: %v\n", evalErr)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	if *limitFlag > 0 && len(results) > *limitFlag {
		results = results[:*limitFlag]
	}

	formatter, err := output.New(*formatFlag, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Supported formats: jsonl, csv, table\n")
		return 1
	}

	if err := formatter.Format(results); err != nil {
		fmt.Fprintf(stderr, "Error formatting output: %v\n", err)
		return 1
	}

	return 0
}

// reportQueryError prints a parse or lex failure with a caret marking
// the offending offset in the query text.
func reportQueryError(stderr io.Writer, queryText string, err error) {
	offset := -1

	var lexErr *query.LexError
	var parseErr *query.ParseError
	switch {
	case errors.As(err, &lexErr):
		offset = lexErr.Offset
	case errors.As(err, &parseErr):
		offset = parseErr.Offset
	}

	fmt.Fprintf(stderr, "Error parsing query: %v\n", err)
	if offset >= 0 && offset <= len(queryText) {
		fmt.Fprintf(stderr, "\n  %s\n", queryText)
		fmt.Fprintf(stderr, "  %*s^\n", offset, "")
	}
}
