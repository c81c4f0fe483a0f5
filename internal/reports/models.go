package reports

import (
	"strings"
	"time"
)

// =====================================================
// Enums and Constants
// =====================================================

// ReportKind identifies one of the fixed report categories
type ReportKind string

const (
	KindAssets        ReportKind = "assets"
	KindSchedules     ReportKind = "schedules"
	KindRequests      ReportKind = "requests"
	KindLocations     ReportKind = "locations"
	KindVendors       ReportKind = "vendors"
	KindDepartments   ReportKind = "departments"
	KindActivityLog   ReportKind = "activity_log"
	KindUsers         ReportKind = "users"
	KindAssetCategory ReportKind = "asset_category"
)

// FetchMode selects how rows for a report kind are retrieved
type FetchMode string

const (
	FetchModeRange      FetchMode = "range"
	FetchModeRole       FetchMode = "role"
	FetchModeAggregated FetchMode = "aggregated"
)

// SpreadsheetFormat represents supported flat export formats
type SpreadsheetFormat string

const (
	SpreadsheetFormatXLSX SpreadsheetFormat = "xlsx"
	SpreadsheetFormatCSV  SpreadsheetFormat = "csv"
)

// ParseSpreadsheetFormat validates a requested spreadsheet format
func ParseSpreadsheetFormat(s string) (SpreadsheetFormat, error) {
	switch SpreadsheetFormat(strings.ToLower(strings.TrimSpace(s))) {
	case SpreadsheetFormatXLSX, "excel":
		return SpreadsheetFormatXLSX, nil
	case SpreadsheetFormatCSV:
		return SpreadsheetFormatCSV, nil
	default:
		return "", invalidError("format", "unsupported spreadsheet format: "+s)
	}
}

// ExportFormat represents any rendered output format
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = ExportFormat(SpreadsheetFormatXLSX)
	ExportFormatCSV  ExportFormat = ExportFormat(SpreadsheetFormatCSV)
)

// ParseExportFormat validates a requested export format
func ParseExportFormat(s string) (ExportFormat, error) {
	if strings.EqualFold(strings.TrimSpace(s), string(ExportFormatPDF)) {
		return ExportFormatPDF, nil
	}
	f, err := ParseSpreadsheetFormat(s)
	if err != nil {
		return "", err
	}
	return ExportFormat(f), nil
}

// SessionState represents a report session lifecycle state
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateSelecting      SessionState = "selecting"
	StateAwaitingFilter SessionState = "awaiting_filter"
	StateFetching       SessionState = "fetching"
	StateEmpty          SessionState = "empty"
	StateReady          SessionState = "ready"
	StatePreviewing     SessionState = "previewing"
	StateExporting      SessionState = "exporting"
	StateFailed         SessionState = "failed"
)

// Outcome is the result of a generation step
type Outcome string

const (
	OutcomeAwaitingFilter Outcome = "awaiting_filter"
	OutcomeEmpty          Outcome = "empty"
	OutcomeReady          Outcome = "ready"
)

// EmptyResultNotice is shown when a report matches no rows
const EmptyResultNotice = "No data found for the selected report."

// =====================================================
// Catalog Types
// =====================================================

// Column is a single schema entry: record key and display label
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// KindSpec describes where a report kind's rows come from and how they render
type KindSpec struct {
	Kind       ReportKind `json:"kind"`
	Collection string     `json:"collection"`
	Mode       FetchMode  `json:"mode"`
	// TimeField is the range filter field for range-mode kinds
	TimeField string `json:"time_field,omitempty"`
	// FilterField is the equality filter field for role-mode kinds
	FilterField string `json:"filter_field,omitempty"`
	// CountField is the asset foreign key counted for aggregated kinds
	CountField string   `json:"count_field,omitempty"`
	Schema     []Column `json:"schema"`
}

// =====================================================
// Filter and Result Types
// =====================================================

// Filter carries the caller-supplied report inputs
type Filter struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ResultSet is the sanitized rows a session currently holds
type ResultSet struct {
	Kind        ReportKind
	Filter      Filter
	Records     []Record
	GeneratedAt time.Time

	refs *referenceOnce
}

// NewResultSet wraps sanitized rows produced for kind and filter
func NewResultSet(kind ReportKind, filter Filter, records []Record, generatedAt time.Time) *ResultSet {
	return &ResultSet{
		Kind:        kind,
		Filter:      filter,
		Records:     records,
		GeneratedAt: generatedAt,
		refs:        &referenceOnce{},
	}
}

// Len returns the number of rows
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// Table is a projected report: display headers and stringified rows
type Table struct {
	Headers []string   `json:"headers"`
	Body    [][]string `json:"body"`
}

// Export is a rendered payload ready for download
type Export struct {
	Data        []byte `json:"-"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// Content types for rendered payloads
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// =====================================================
// Request/Response DTOs
// =====================================================

// SelectKindRequest selects a report kind for a session
type SelectKindRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// GenerateRequest runs a report for a kind and filter
type GenerateRequest struct {
	Kind      string `json:"kind" binding:"required"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Role      string `json:"role,omitempty"`
}

// SessionResponse describes a session's observable state
type SessionResponse struct {
	ID            string       `json:"id"`
	State         SessionState `json:"state"`
	Kind          ReportKind   `json:"kind,omitempty"`
	RowCount      int          `json:"row_count"`
	Notice        string       `json:"notice,omitempty"`
	Error         string       `json:"error,omitempty"`
	PreviewHandle string       `json:"preview_handle,omitempty"`
	PreviewURL    string       `json:"preview_url,omitempty"`
}

// GenerateResponse is returned after a generation step
type GenerateResponse struct {
	Outcome Outcome         `json:"outcome"`
	Session SessionResponse `json:"session"`
}

// CatalogEntry describes a report kind to clients
type CatalogEntry struct {
	Kind    ReportKind `json:"kind"`
	Title   string     `json:"title"`
	Mode    FetchMode  `json:"mode"`
	Columns []Column   `json:"columns"`
}
