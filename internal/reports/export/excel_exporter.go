package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports rows to a single-sheet workbook
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName     string            `json:"sheet_name"`
	IncludeHeader bool              `json:"include_header"`
	FreezeHeader  bool              `json:"freeze_header"`
	AutoFilter    bool              `json:"auto_filter"`
	NumberFormat  string            `json:"number_format,omitempty"`
	HeaderStyle   *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle     *ExcelStyleConfig `json:"data_style,omitempty"`
	AutoWidth     bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
	WrapText  bool   `json:"wrap_text"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:     "Report",
		IncludeHeader: true,
		FreezeHeader:  true,
		AutoFilter:    true,
		AutoWidth:     true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize:  11,
			Alignment: "left",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) (*ExcelExporter, error) {
	if options.SheetName == "" {
		options.SheetName = "Report"
	}

	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", options.SheetName); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	return &ExcelExporter{
		file:    file,
		options: options,
	}, nil
}

// WriteHeader writes the header row with styling
func (e *ExcelExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader || len(columns) == 0 {
		return nil
	}

	sheetName := e.options.SheetName

	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle, "")
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	if err := e.file.SetSheetRow(sheetName, "A1", &columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if headerStyleID > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := e.file.SetCellStyle(sheetName, "A1", last, headerStyleID); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	if e.options.FreezeHeader {
		if err := e.file.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return nil
}

// WriteRows writes one row per map, reading values in column order
func (e *ExcelExporter) WriteRows(rows []map[string]interface{}, columns []string) error {
	sheetName := e.options.SheetName
	startRow := 1
	if e.options.IncludeHeader {
		startRow = 2
	}

	dataStyleID := 0
	if e.options.DataStyle != nil {
		style, err := e.createStyle(e.options.DataStyle, "")
		if err != nil {
			return fmt.Errorf("failed to create data style: %w", err)
		}
		dataStyleID = style
	}
	numberStyleID := dataStyleID
	if e.options.NumberFormat != "" {
		base := e.options.DataStyle
		if base == nil {
			base = &ExcelStyleConfig{}
		}
		style, err := e.createStyle(base, e.options.NumberFormat)
		if err != nil {
			return fmt.Errorf("failed to create number style: %w", err)
		}
		numberStyleID = style
	}

	columnWidths := make(map[int]float64)
	if e.options.IncludeHeader {
		for i, col := range columns {
			columnWidths[i] = estimateWidth(col)
		}
	}

	for rowIdx, row := range rows {
		rowNum := startRow + rowIdx

		for colIdx, colName := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			val := row[colName]

			if err := e.file.SetCellValue(sheetName, cell, cellValue(val)); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}

			styleID := dataStyleID
			if isNumber(val) {
				styleID = numberStyleID
			}
			if styleID > 0 {
				if err := e.file.SetCellStyle(sheetName, cell, cell, styleID); err != nil {
					return fmt.Errorf("failed to style cell: %w", err)
				}
			}

			if e.options.AutoWidth {
				if width := estimateWidth(formatValue(val)); width > columnWidths[colIdx] {
					columnWidths[colIdx] = width
				}
			}
		}
	}

	if e.options.AutoFilter && e.options.IncludeHeader && len(rows) > 0 && len(columns) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
		if err := e.file.AutoFilter(sheetName, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if e.options.AutoWidth {
		for colIdx, width := range columnWidths {
			colName, _ := excelize.ColumnNumberToName(colIdx + 1)
			// Min width 10, max width 50
			if width < 10 {
				width = 10
			}
			if width > 50 {
				width = 50
			}
			if err := e.file.SetColWidth(sheetName, colName, colName, width); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	return nil
}

// WriteTo writes the workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// OutputToBytes returns the workbook as bytes
func (e *ExcelExporter) OutputToBytes() ([]byte, error) {
	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close closes the workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig, numFmt string) (int, error) {
	style := &excelize.Style{}

	style.Font = &excelize.Font{
		Bold: config.FontBold,
		Size: float64(config.FontSize),
	}
	if config.FontColor != "" {
		style.Font.Color = config.FontColor
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" || config.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: config.Alignment,
			WrapText:   config.WrapText,
		}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	if numFmt != "" {
		style.CustomNumFmt = &numFmt
	}

	return e.file.NewStyle(style)
}

// cellValue maps nil to an empty cell
func cellValue(val interface{}) interface{} {
	if val == nil {
		return ""
	}
	return val
}

func isNumber(val interface{}) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// estimateWidth is a rough character count plus padding
func estimateWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * 1.2
}
