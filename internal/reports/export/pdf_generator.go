package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator renders a titled table into a paginated PDF document
type PDFGenerator struct {
	pdf       *gofpdf.Fpdf
	options   PDFOptions
	translate func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait/P, landscape/L
	Title          string     `json:"title"`
	BrandText      string     `json:"brand_text,omitempty"`
	BrandLogo      string     `json:"brand_logo,omitempty"` // Path to a PNG or JPEG logo
	LogoWidth      float64    `json:"logo_width"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	BrandFontSize  float64    `json:"brand_font_size"`
	Margins        PDFMargins `json:"margins"`
	// GeneratedAt pins the document metadata dates so identical input renders identical bytes
	GeneratedAt time.Time `json:"generated_at"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "portrait",
		Title:          "Report",
		BrandText:      "AssetONE",
		LogoWidth:      30,
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       9,
		HeaderFontSize: 10,
		TitleFontSize:  16,
		BrandFontSize:  20,
		Margins: PDFMargins{
			Left:   15,
			Right:  15,
			Top:    20,
			Bottom: 20,
		},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	switch strings.ToLower(options.Orientation) {
	case "landscape", "l":
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(false, options.Margins.Bottom)
	pdf.SetCatalogSort(true)
	if !options.GeneratedAt.IsZero() {
		pdf.SetCreationDate(options.GeneratedAt)
		pdf.SetModificationDate(options.GeneratedAt)
	}
	pdf.SetTitle(options.Title, true)
	pdf.AliasNbPages("")

	g := &PDFGenerator{
		pdf:       pdf,
		options:   options,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	g.setFooter()
	return g
}

// GenerateTable renders the brand mark, the title and the table
func (g *PDFGenerator) GenerateTable(headers []string, body [][]string) error {
	g.pdf.AddPage()

	g.addBrand()
	g.addTitle()
	g.pdf.Ln(6)

	if len(headers) == 0 {
		return g.pdf.Error()
	}

	colWidths := g.calculateColumnWidths(headers, body)
	g.addTableHeader(headers, colWidths)
	g.addTableData(headers, body, colWidths)

	return g.pdf.Error()
}

// addBrand adds the centered logo, or the brand text when no logo is readable
func (g *PDFGenerator) addBrand() {
	if g.options.BrandLogo != "" {
		if _, err := os.Stat(g.options.BrandLogo); err == nil {
			pageWidth, _ := g.pdf.GetPageSize()
			x := (pageWidth - g.options.LogoWidth) / 2
			info := g.pdf.RegisterImageOptions(g.options.BrandLogo, gofpdf.ImageOptions{ReadDpi: true})
			if info != nil && g.pdf.Ok() {
				height := info.Height() * g.options.LogoWidth / info.Width()
				g.pdf.ImageOptions(g.options.BrandLogo, x, g.pdf.GetY(), g.options.LogoWidth, height, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
				g.pdf.SetY(g.pdf.GetY() + height + 4)
				return
			}
		}
	}
	if g.options.BrandText == "" {
		return
	}
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.BrandFontSize)
	g.pdf.SetTextColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.CellFormat(0, 12, g.translate(g.options.BrandText), "", 1, "C", false, 0, "")
}

// addTitle adds the report title
func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.translate(g.options.Title), "", 1, "C", false, 0, "")
}

// calculateColumnWidths sizes columns to their content and scales them to the page width
func (g *PDFGenerator) calculateColumnWidths(headers []string, body [][]string) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	availableWidth := pageWidth - g.options.Margins.Left - g.options.Margins.Right

	widths := make([]float64, len(headers))

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	for i, label := range headers {
		if w := g.pdf.GetStringWidth(g.translate(label)) + 4; w > widths[i] {
			widths[i] = w
		}
	}

	// Sample the first 100 rows
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	sampleSize := len(body)
	if sampleSize > 100 {
		sampleSize = 100
	}
	for _, row := range body[:sampleSize] {
		for i := range headers {
			if i >= len(row) {
				break
			}
			if w := g.pdf.GetStringWidth(g.translate(row[i])) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > 0 {
		scale := availableWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}

	return widths
}

// addTableHeader adds the table header row
func (g *PDFGenerator) addTableHeader(labels []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		g.pdf.CellFormat(widths[i], 8, g.fit(label, widths[i]), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
}

// addTableData adds the body rows, repeating the header on each new page
func (g *PDFGenerator) addTableData(headers []string, body [][]string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)

	_, pageHeight := g.pdf.GetPageSize()
	for i, row := range body {
		if g.pdf.GetY()+7 > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			g.addTableHeader(headers, widths)
			g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
			g.pdf.SetTextColor(0, 0, 0)
		}

		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}

		for j := range headers {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			g.pdf.CellFormat(widths[j], 7, g.fit(val, widths[j]), "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

// fit translates text and truncates it with "..." to fit width
func (g *PDFGenerator) fit(text string, width float64) string {
	s := g.translate(text)
	limit := width - 2
	if g.pdf.GetStringWidth(s) <= limit {
		return s
	}
	const ellipsis = "..."
	b := []byte(s)
	for len(b) > 0 && g.pdf.GetStringWidth(string(b)+ellipsis) > limit {
		b = b[:len(b)-1]
	}
	return string(b) + ellipsis
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-15)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		pageInfo := fmt.Sprintf("Page %d of {nb}", g.pdf.PageNo())
		g.pdf.CellFormat(0, 10, pageInfo, "", 0, "C", false, 0, "")
	})
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	err := g.pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
