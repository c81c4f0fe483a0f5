package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVExporter exports data to CSV format
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter      rune   `json:"delimiter"`        // Field delimiter (default: comma)
	UseCRLF        bool   `json:"use_crlf"`         // Use \r\n for line terminator
	IncludeHeader  bool   `json:"include_header"`   // Include column headers
	NullValue      string `json:"null_value"`       // String to use for null values
	BoolTrueValue  string `json:"bool_true_value"`  // String for true
	BoolFalseValue string `json:"bool_false_value"` // String for false
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:      ',',
		UseCRLF:        false,
		IncludeHeader:  true,
		NullValue:      "",
		BoolTrueValue:  "true",
		BoolFalseValue: "false",
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader {
		return nil
	}

	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.headerWritten = true
	return nil
}

// WriteMapRows writes rows from a slice of maps
func (e *CSVExporter) WriteMapRows(rows []map[string]interface{}, columns []string) error {
	if !e.headerWritten && e.options.IncludeHeader {
		if err := e.WriteHeader(columns); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			val, ok := row[col]
			if !ok {
				record[i] = e.options.NullValue
			} else {
				record[i] = e.formatValue(val)
			}
		}

		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}

// formatValue formats a value for CSV output
func (e *CSVExporter) formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return e.options.NullValue
	case bool:
		if v {
			return e.options.BoolTrueValue
		}
		return e.options.BoolFalseValue
	default:
		return formatValue(v)
	}
}

// formatValue renders a primitive cell value as text
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
