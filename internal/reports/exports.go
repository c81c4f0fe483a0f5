package reports

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports/export"
)

// DocumentOptions configures the PDF document exporter
type DocumentOptions struct {
	BrandText   string
	BrandLogo   string
	PageSize    string
	Orientation string
}

// DocumentExporter renders projected tables as paginated PDF documents
type DocumentExporter struct {
	options DocumentOptions
}

// NewDocumentExporter creates a document exporter
func NewDocumentExporter(options DocumentOptions) *DocumentExporter {
	return &DocumentExporter{options: options}
}

// Render produces the PDF for a kind's table. Equal inputs give equal bytes.
func (d *DocumentExporter) Render(kind ReportKind, table Table, generatedAt time.Time) ([]byte, error) {
	opts := export.DefaultPDFOptions()
	opts.Title = HumanizeKind(kind) + " Report"
	opts.GeneratedAt = generatedAt
	if d.options.BrandText != "" {
		opts.BrandText = d.options.BrandText
	}
	opts.BrandLogo = d.options.BrandLogo
	if d.options.PageSize != "" {
		opts.PageSize = d.options.PageSize
	}
	if d.options.Orientation != "" {
		opts.Orientation = d.options.Orientation
	}

	gen := export.NewPDFGenerator(opts)
	if err := gen.GenerateTable(table.Headers, table.Body); err != nil {
		return nil, fmt.Errorf("failed to render %s document: %w", kind, err)
	}
	data, err := gen.OutputToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write %s document: %w", kind, err)
	}
	return data, nil
}

// SpreadsheetExporter renders display records as XLSX or CSV
type SpreadsheetExporter struct{}

// Render writes every field of every record; columns are the union of
// record keys in first-seen order
func (SpreadsheetExporter) Render(records []Record, format SpreadsheetFormat) ([]byte, error) {
	columns := SpreadsheetColumns(records)
	rows := make([]map[string]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Map()
	}

	switch format {
	case SpreadsheetFormatCSV:
		var buf bytes.Buffer
		exporter := export.NewCSVExporter(&buf, export.DefaultCSVOptions())
		if err := exporter.WriteHeader(columns); err != nil {
			return nil, err
		}
		if err := exporter.WriteMapRows(rows, columns); err != nil {
			return nil, err
		}
		if err := exporter.Flush(); err != nil {
			return nil, fmt.Errorf("failed to flush csv: %w", err)
		}
		return buf.Bytes(), nil
	case SpreadsheetFormatXLSX:
		exporter, err := export.NewExcelExporter(export.DefaultExcelOptions())
		if err != nil {
			return nil, err
		}
		defer exporter.Close()
		if err := exporter.WriteHeader(columns); err != nil {
			return nil, err
		}
		if err := exporter.WriteRows(rows, columns); err != nil {
			return nil, err
		}
		return exporter.OutputToBytes()
	default:
		return nil, invalidError("format", "unsupported spreadsheet format: "+string(format))
	}
}

// SpreadsheetColumns returns the union of record keys in first-seen order
func SpreadsheetColumns(records []Record) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range records {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// SpreadsheetContentType returns the MIME type for a spreadsheet format
func SpreadsheetContentType(format SpreadsheetFormat) string {
	if format == SpreadsheetFormatCSV {
		return ContentTypeCSV
	}
	return ContentTypeXLSX
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName suggests a download name: <kind>_<from>_to_<to>.<ext> when the
// kind is range filtered, otherwise <kind>.<ext>
func FileName(kind ReportKind, filter Filter, ext string) string {
	base := whitespace.ReplaceAllString(string(kind), "_")
	spec, ok := Lookup(kind)
	if (!ok || spec.Mode == FetchModeRange) && filter.StartDate != "" && filter.EndDate != "" {
		base = fmt.Sprintf("%s_%s_to_%s", base, filter.StartDate, filter.EndDate)
	}
	return base + "." + ext
}
