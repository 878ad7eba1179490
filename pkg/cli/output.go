package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
	// FormatJUnit is JUnit XML output (for test results).
	FormatJUnit OutputFormat = "junit"
)

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats output as CSV.
type CSVFormatter struct {
	Headers []string
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in CSV format. data must be a slice (or
// array); each element becomes one row, following whichever of these
// shapes the element has:
//
//   - []string / [N]string: written as-is
//   - map[string]string / map[string]interface{}: written in Headers
//     order (a key missing from Headers is silently dropped, since CSV
//     columns must stay fixed-width)
//   - any other struct/value: its exported fields, in declaration order
//
// A nil or non-slice data is rejected rather than guessed at.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if len(f.Headers) > 0 {
		if err := csvWriter.Write(f.Headers); err != nil {
			return err
		}
	}

	if data == nil {
		return fmt.Errorf("CSV formatting requires a slice of rows, got nil")
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("CSV formatting requires a slice of rows, got %T", data)
	}

	for i := 0; i < v.Len(); i++ {
		row, err := f.rowFor(v.Index(i).Interface())
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// rowFor converts one data element into a CSV row.
func (f *CSVFormatter) rowFor(elem interface{}) ([]string, error) {
	switch row := elem.(type) {
case []string:
		return row, nil
case map[string]string:
		return f.mappedRow(func(key string) (string, bool) { v, ok := row[key]; return v, ok }), nil
case map[string]interface{}:
		return f.mappedRow(func(key string) (string, bool) {
			v, ok := row[key]
			if !ok {
				return "", false
			}
			return fmt.Sprintf("%v", v), true
		}), nil
	}

	rv := reflect.ValueOf(elem)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return []string{fmt.Sprintf("%v", elem)}, nil
	}

	row := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		if !rv.Type().Field(i).IsExported() {
			continue
		}
		row = append(row, fmt.Sprintf("%v", rv.Field(i).Interface()))
	}
	return row, nil
}

// mappedRow orders a key-value row by f.Headers, falling back to
// emitting nothing for a row with no declared headers.
func (f *CSVFormatter) mappedRow(get func(key string) (string, bool)) []string {
	row := make([]string, len(f.Headers))
	for i, h := range f.Headers {
		v, _ := get(h)
		row[i] = v
	}
	return row
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
case FormatJSON:
		return &JSONFormatter{Indent: true}
case FormatCSV:
		return &CSVFormatter{}
default:
		return &TextFormatter{}
	}
}
