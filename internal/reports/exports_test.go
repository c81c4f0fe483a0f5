package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		kind   ReportKind
		filter Filter
		ext    string
		want   string
	}{
		{
			name:   "range kind with dates",
			kind:   KindActivityLog,
			filter: Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"},
			ext:    "pdf",
			want:   "activity_log_2024-01-01_to_2024-01-31.pdf",
		},
		{name: "range kind without dates", kind: KindAssets, ext: "csv", want: "assets.csv"},
		{name: "role kind", kind: KindUsers, filter: Filter{Role: "admin"}, ext: "xlsx", want: "users.xlsx"},
		{name: "aggregated kind", kind: KindAssetCategory, ext: "pdf", want: "asset_category.pdf"},
		{
			name:   "whitespace collapsed",
			kind:   ReportKind("asset  category"),
			filter: Filter{StartDate: "2024-01-01", EndDate: "2024-01-02"},
			ext:    "pdf",
			want:   "asset_category_2024-01-01_to_2024-01-02.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.kind, tt.filter, tt.ext))
		})
	}
}

func TestSpreadsheetColumns(t *testing.T) {
	records := []Record{
		NewRecord("id", "1", "name", "A"),
		NewRecord("id", "2", "cost", 5, "name", "B"),
		NewRecord("status", "open"),
	}

	assert.Equal(t, []string{"id", "name", "cost", "status"}, SpreadsheetColumns(records))
}

func TestSpreadsheetExporter_CSV(t *testing.T) {
	records := []Record{
		NewRecord("id", "1", "name", "A"),
		NewRecord("id", "2", "cost", 5, "active", true),
	}

	data, err := SpreadsheetExporter{}.Render(records, SpreadsheetFormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "id,name,cost,active\n1,A,,\n2,,5,true\n", string(data))
}

func TestSpreadsheetExporter_XLSX(t *testing.T) {
	records := []Record{
		NewRecord("id", "a1", "name", "Forklift", "cost", 1250.5),
		NewRecord("id", "a2", "name", "Laptop", "location", "l1"),
	}

	data, err := SpreadsheetExporter{}.Render(records, SpreadsheetFormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "name", "cost", "location"}, rows[0])
	require.GreaterOrEqual(t, len(rows[1]), 3)
	assert.Equal(t, []string{"a1", "Forklift", "1250.5"}, rows[1][:3])
	assert.Equal(t, []string{"a2", "Laptop", "", "l1"}, rows[2])
}

func TestDocumentExporter_Render(t *testing.T) {
	table := Project(KindLocations, []Record{
		NewRecord("id", "l1", "name", "Warehouse", "address", "1 Dock Rd", "assetCount", 2),
	}, NewResolver(KindLocations, nil, DefaultDisplayFormat()))

	exporter := NewDocumentExporter(DocumentOptions{BrandText: "Acme Assets"})
	a, err := exporter.Render(KindLocations, table, fixedNow())
	require.NoError(t, err)
	b, err := exporter.Render(KindLocations, table, fixedNow())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(a, []byte("%PDF")))
	assert.Equal(t, a, b)
}

func newTestService(store Store) *Service {
	svc := NewService(store, ServiceConfig{
		Locale:   "en-US",
		Location: time.UTC,
	}, zap.NewNop())
	svc.now = fixedNow
	return svc
}

func TestService_RunExport(t *testing.T) {
	svc := newTestService(seededStore())
	defer svc.Close()
	ctx := context.Background()
	filter := Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"}

	pdf, err := svc.RunExport(ctx, RunExportRequest{Kind: KindRequests, Filter: filter, Format: ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "requests_2024-01-01_to_2024-01-31.pdf", pdf.FileName)
	assert.Equal(t, ContentTypePDF, pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	xlsx, err := svc.RunExport(ctx, RunExportRequest{Kind: KindRequests, Filter: filter, Format: ExportFormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, "requests_2024-01-01_to_2024-01-31.xlsx", xlsx.FileName)
	assert.Equal(t, ContentTypeXLSX, xlsx.ContentType)

	csv, err := svc.RunExport(ctx, RunExportRequest{Kind: KindLocations, Format: ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "locations.csv", csv.FileName)
	assert.Equal(t, "id,name,address,assetCount\nl1,Warehouse,1 Dock Rd,2\nl2,Office,9 Main St,0\n", string(csv.Data))
}

func TestService_RunExportLocation(t *testing.T) {
	store := newMemStore()
	// 2024-02-01 05:00 in Tokyo
	store.put("assets", NewRecord("id", "a9", "name", "Drill",
		"dateCreated", NewTimeInstant(time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC))))
	svc := newTestService(store)
	defer svc.Close()
	ctx := context.Background()
	req := RunExportRequest{
		Kind:   KindAssets,
		Filter: Filter{StartDate: "2024-02-01", EndDate: "2024-02-01"},
		Format: ExportFormatCSV,
	}

	_, err := svc.RunExport(ctx, req)
	assert.ErrorIs(t, err, ErrEmptyResult)

	req.Location = time.FixedZone("JST", 9*3600)
	export, err := svc.RunExport(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, string(export.Data), "a9,Drill")
}

func TestService_RunExportErrors(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	defer svc.Close()
	ctx := context.Background()

	_, err := svc.RunExport(ctx, RunExportRequest{Kind: KindAssets, Filter: Filter{StartDate: "2020-01-01", EndDate: "2020-01-31"}, Format: ExportFormatPDF})
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = svc.RunExport(ctx, RunExportRequest{Kind: ReportKind("invoices"), Format: ExportFormatPDF})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "kind", verr.Field)

	calls := store.callCount()
	_, err = svc.RunExport(ctx, RunExportRequest{Kind: KindLocations, Format: ExportFormat("docx")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "format", verr.Field)
	assert.Equal(t, calls, store.callCount())
}
