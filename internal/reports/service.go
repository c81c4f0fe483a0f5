package reports

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ServiceConfig configures the reports service
type ServiceConfig struct {
	Locale          string
	Location        *time.Location
	Document        DocumentOptions
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// Service provides business logic for reporting operations
type Service struct {
	store    Store
	fetcher  *Fetcher
	loader   *ReferenceLoader
	document *DocumentExporter
	handles  *HandleRegistry
	sessions *SessionStore
	format   DisplayFormat
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new reports service
func NewService(store Store, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	format := NewDisplayFormat(cfg.Locale, cfg.Location)
	s := &Service{
		store:    store,
		fetcher:  NewFetcher(store, format.Location),
		loader:   NewReferenceLoader(store),
		document: NewDocumentExporter(cfg.Document),
		handles:  NewHandleRegistry(),
		format:   format,
		logger:   logger,
		now:      time.Now,
	}

	s.sessions = NewSessionStore(SessionConfig{
		Fetcher:    s.fetcher,
		References: s.loader,
		Document:   s.document,
		Handles:    s.handles,
		Format:     s.format,
		Logger:     logger,
		Now:        s.now,
	}, cfg.SessionTTL, cfg.CleanupInterval, logger)

	return s
}

// =====================================================
// Catalog
// =====================================================

// Catalog lists every report kind with its document columns
func (s *Service) Catalog() []CatalogEntry {
	return Catalog()
}

// =====================================================
// Session Operations
// =====================================================

// CreateSession opens a new report session
func (s *Service) CreateSession() *Session {
	return s.sessions.Create()
}

// GetSession returns an open session
func (s *Service) GetSession(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// CloseSession closes a session and releases its preview
func (s *Service) CloseSession(id string) error {
	return s.sessions.Delete(id)
}

// Preview returns the artifact behind a live preview handle
func (s *Service) Preview(handle string) (*PreviewArtifact, error) {
	return s.handles.Get(handle)
}

// LiveHandles returns the number of unreleased preview handles
func (s *Service) LiveHandles() int {
	return s.handles.Live()
}

// Close closes every session and stops the session cleanup loop
func (s *Service) Close() {
	s.sessions.Stop()
}

// =====================================================
// One-shot Export
// =====================================================

// RunExportRequest describes an export produced without a session
type RunExportRequest struct {
	Kind     ReportKind
	Filter   Filter
	Format   ExportFormat
	// Location overrides the service time zone for date filters
	Location *time.Location
}

// RunExport fetches and renders a report in one call. An empty result
// returns ErrEmptyResult.
func (s *Service) RunExport(ctx context.Context, req RunExportRequest) (*Export, error) {
	if _, ok := Lookup(req.Kind); !ok {
		return nil, invalidError("kind", "unknown report kind: "+string(req.Kind))
	}
	switch req.Format {
	case ExportFormatPDF, ExportFormatXLSX, ExportFormatCSV:
	default:
		return nil, invalidError("format", "unsupported export format: "+string(req.Format))
	}

	rows, err := s.fetcher.In(req.Location).Fetch(ctx, req.Kind, req.Filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResult
	}
	rs := NewResultSet(req.Kind, req.Filter, SanitizeAll(rows), s.now())

	switch req.Format {
	case ExportFormatPDF:
		refs, err := rs.References(ctx, s.loader)
		if err != nil {
			return nil, fmt.Errorf("failed to load references: %w", err)
		}
		table := Project(rs.Kind, rs.Records, NewResolver(rs.Kind, refs, s.format))
		data, err := s.document.Render(rs.Kind, table, rs.GeneratedAt)
		if err != nil {
			return nil, err
		}
		return &Export{
			Data:        data,
			FileName:    FileName(rs.Kind, rs.Filter, "pdf"),
			ContentType: ContentTypePDF,
		}, nil
	case ExportFormatXLSX, ExportFormatCSV:
		format := SpreadsheetFormat(req.Format)
		data, err := SpreadsheetExporter{}.Render(ToDisplayAll(rs.Records, s.format), format)
		if err != nil {
			return nil, err
		}
		return &Export{
			Data:        data,
			FileName:    FileName(rs.Kind, rs.Filter, string(format)),
			ContentType: SpreadsheetContentType(format),
		}, nil
	default:
		return nil, invalidError("format", "unsupported export format: "+string(req.Format))
	}
}
