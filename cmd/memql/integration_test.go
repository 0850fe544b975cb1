package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

type testRow struct {
	ID   int64   `parquet:"id"`
	Name string  `parquet:"name"`
	Age  int64   `parquet:"age"`
	Pay  float64 `parquet:"pay"`
}

func createTestParquetFile(t *testing.T, dir, filename string, rows []testRow) string {
	t.Helper()
	testFile := filepath.Join(dir, filename)

	f, err := os.Create(testFile)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	writer := parquet.NewGenericWriter[testRow](f)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	return testFile
}

func sampleFile(t *testing.T) string {
	t.Helper()
	return createTestParquetFile(t, t.TempDir(), "test.parquet", []testRow{
		{ID: 1, Name: "Alice", Age: 30, Pay: 50000},
		{ID: 2, Name: "Bob", Age: 25, Pay: 45000},
		{ID: 3, Name: "Charlie", Age: 35, Pay: 60000},
	})
}

func TestRun_DefaultQuery(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{sampleFile(t)}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d output lines, want 3: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Alice") {
		t.Errorf("first line = %q, want Alice record", lines[0])
	}
}

func TestRun_FilterAndProjection(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-q", "SELECT o.name WHERE o.age > 26", sampleFile(t)}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	want := "\"Alice\"\n\"Charlie\"\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRun_ReturningMapAsCSV(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "csv", "-q", "SELECT o.name, o.age RETURNING map", sampleFile(t)}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if lines[0] != "age,name" {
		t.Errorf("header = %q, want %q", lines[0], "age,name")
	}
	if len(lines) != 4 {
		t.Errorf("got %d lines, want header plus 3 rows: %q", len(lines), lines)
	}
}

func TestRun_TableFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "table", "-q", "SELECT o.name, o.age", sampleFile(t)}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Alice") {
		t.Errorf("table output missing data:\n%s", stdout.String())
	}
}

func TestRun_Limit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-limit", "2", "-q", "SELECT o.name", sampleFile(t)}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2: %q", len(lines), lines)
	}
}

func TestRun_Glob(t *testing.T) {
	tmpDir := t.TempDir()
	createTestParquetFile(t, tmpDir, "a.parquet", []testRow{{ID: 1, Name: "Alice", Age: 30}})
	createTestParquetFile(t, tmpDir, "b.parquet", []testRow{{ID: 2, Name: "Bob", Age: 25}})

	var stdout, stderr bytes.Buffer
	code := run([]string{"-q", "SELECT o.name", filepath.Join(tmpDir, "*.parquet")}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2: %q", len(lines), lines)
	}
}

func TestRun_Errors(t *testing.T) {
	file := sampleFile(t)

	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{
			name:       "missing file argument",
			args:       []string{"-q", "SELECT o"},
			wantStderr: "missing parquet file argument",
		},
		{
			name:       "file not found",
			args:       []string{"nosuchfile.parquet"},
			wantStderr: "not found",
		},
		{
			name:       "parse error with caret",
			args:       []string{"-q", "SELECT WHERE o.age > 30", file},
			wantStderr: "^",
		},
		{
			name:       "lex error",
			args:       []string{"-q", "SELECT o.age @ 3", file},
			wantStderr: "unexpected character",
		},
		{
			name:       "evaluation error",
			args:       []string{"-q", "SELECT o.nosuchcolumn", file},
			wantStderr: "Error executing query",
		},
		{
			name:       "unknown format",
			args:       []string{"-f", "xml", file},
			wantStderr: "unknown output format",
		},
		{
			name:       "negative limit",
			args:       []string{"-limit", "-1", file},
			wantStderr: "must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code == 0 {
				t.Fatalf("run(%v) = 0, want non-zero", tt.args)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
