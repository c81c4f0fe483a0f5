package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cruzrowellt2024/AssetONE-sub001/pkg/workflows"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var sessionMachine = workflows.NewStateMachine(map[string][]string{
	string(StateIdle):           {string(StateSelecting)},
	string(StateSelecting):      {string(StateAwaitingFilter), string(StateFetching)},
	string(StateAwaitingFilter): {string(StateSelecting), string(StateFetching), string(StateIdle)},
	string(StateFetching):       {string(StateEmpty), string(StateReady), string(StateFailed), string(StateAwaitingFilter)},
	string(StateEmpty):          {string(StateSelecting), string(StateIdle)},
	string(StateReady):          {string(StatePreviewing), string(StateExporting), string(StateSelecting), string(StateIdle)},
	string(StatePreviewing):     {string(StateReady), string(StateExporting), string(StateSelecting), string(StateIdle)},
	string(StateExporting):      {string(StateReady), string(StatePreviewing)},
	string(StateFailed):         {string(StateSelecting), string(StateIdle)},
})

// SessionConfig wires a session to its collaborators
type SessionConfig struct {
	Fetcher    *Fetcher
	References *ReferenceLoader
	Document   *DocumentExporter
	Handles    *HandleRegistry
	Format     DisplayFormat
	Logger     *zap.Logger
	Now        func() time.Time
}

// Session drives one client's report through select, fetch, preview and
// export. It owns its result set and holds at most one live preview handle.
type Session struct {
	id  string
	cfg SessionConfig

	mu         sync.Mutex
	state      SessionState
	kind       ReportKind
	pending    Filter
	result     *ResultSet
	notice     string
	lastErr    error
	preview    *PreviewArtifact
	seq        uint64
	previewSeq uint64
	closed     bool
	lastActive time.Time

	wg sync.WaitGroup
}

// NewSession creates an idle session
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Handles == nil {
		cfg.Handles = NewHandleRegistry()
	}
	if cfg.Document == nil {
		cfg.Document = NewDocumentExporter(DocumentOptions{})
	}
	if cfg.Format.DateTimeLayout == "" {
		cfg.Format = DefaultDisplayFormat()
	}

	return &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		state:      StateIdle,
		lastActive: cfg.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the held result set, or nil
func (s *Session) Result() *ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Pending returns filter input kept after a failed submit
func (s *Session) Pending() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// LastError returns the error that moved the session to failed
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Preview returns the current preview artifact, or nil
func (s *Session) Preview() *PreviewArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot describes the session for API responses
func (s *Session) Snapshot() SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := SessionResponse{
		ID:       s.id,
		State:    s.state,
		Kind:     s.kind,
		RowCount: s.result.Len(),
		Notice:   s.notice,
	}
	if s.lastErr != nil {
		resp.Error = s.lastErr.Error()
	}
	if s.preview != nil {
		resp.PreviewHandle = s.preview.Handle
	}
	return resp
}

// Select chooses a report kind. Aggregated kinds need no filter and are
// fetched immediately; other kinds wait for Submit.
func (s *Session) Select(ctx context.Context, kind ReportKind) (Outcome, error) {
	spec, ok := Lookup(kind)
	if !ok {
		return "", invalidError("kind", "unknown report kind: "+string(kind))
	}

	s.mu.Lock()
	if err := s.checkIdleForGeneration(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if err := s.transition(StateSelecting); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.kind = kind
	s.pending = Filter{}
	s.notice = ""
	s.lastErr = nil
	s.clearResult()

	if spec.Mode != FetchModeAggregated {
		err := s.transition(StateAwaitingFilter)
		s.mu.Unlock()
		if err != nil {
			return "", err
		}
		return OutcomeAwaitingFilter, nil
	}

	if err := s.transition(StateFetching); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()
	return s.fetch(ctx, kind, Filter{})
}

// Submit supplies the filter for the selected kind and fetches. Missing
// input returns a *ValidationError and leaves the store untouched.
func (s *Session) Submit(ctx context.Context, filter Filter) (Outcome, error) {
	s.mu.Lock()
	if err := s.checkIdleForGeneration(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if s.state != StateAwaitingFilter {
		state := s.state
		s.mu.Unlock()
		return "", fmt.Errorf("%w: cannot submit a filter while %s", ErrInvalidTransition, state)
	}
	if err := ValidateFilter(s.kind, filter, s.cfg.Format.Location); err != nil {
		s.pending = filter
		s.mu.Unlock()
		return "", err
	}
	if err := s.transition(StateFetching); err != nil {
		s.mu.Unlock()
		return "", err
	}
	kind := s.kind
	s.mu.Unlock()

	return s.fetch(ctx, kind, filter)
}

// Generate selects kind and submits filter in one step
func (s *Session) Generate(ctx context.Context, kind ReportKind, filter Filter) (Outcome, error) {
	outcome, err := s.Select(ctx, kind)
	if err != nil || outcome != OutcomeAwaitingFilter {
		return outcome, err
	}
	return s.Submit(ctx, filter)
}

func (s *Session) fetch(ctx context.Context, kind ReportKind, filter Filter) (Outcome, error) {
	rows, err := s.cfg.Fetcher.Fetch(ctx, kind, filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	s.touch()

	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.pending = filter
			_ = s.transition(StateAwaitingFilter)
			return "", err
		}
		s.lastErr = err
		_ = s.transition(StateFailed)
		s.cfg.Logger.Error("Failed to fetch report data",
			zap.String("session_id", s.id),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return "", err
	}

	s.pending = Filter{}
	if len(rows) == 0 {
		s.clearResult()
		s.notice = EmptyResultNotice
		_ = s.transition(StateEmpty)
		s.cfg.Logger.Info("Report returned no rows",
			zap.String("session_id", s.id),
			zap.String("kind", string(kind)),
		)
		return OutcomeEmpty, nil
	}

	rs := NewResultSet(kind, filter, SanitizeAll(rows), s.cfg.Now())
	s.result = rs
	s.notice = ""
	_ = s.transition(StateReady)
	s.schedulePreview(rs)

	s.cfg.Logger.Info("Report generated",
		zap.String("session_id", s.id),
		zap.String("kind", string(kind)),
		zap.Int("rows", rs.Len()),
	)
	return OutcomeReady, nil
}

// schedulePreview starts a background render for rs. Only the render
// matching the latest sequence number is kept. Caller holds s.mu.
func (s *Session) schedulePreview(rs *ResultSet) {
	s.seq++
	seq := s.seq
	_ = s.transition(StatePreviewing)

	s.wg.Add(1)
	go s.regeneratePreview(seq, rs)
}

func (s *Session) regeneratePreview(seq uint64, rs *ResultSet) {
	defer s.wg.Done()

	data, err := s.renderDocument(context.Background(), rs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.seq {
		s.cfg.Logger.Debug("Discarding stale report preview",
			zap.String("session_id", s.id),
			zap.Uint64("seq", seq),
		)
		return
	}
	s.previewSeq = seq

	if err != nil {
		s.cfg.Logger.Error("Failed to render report preview",
			zap.String("session_id", s.id),
			zap.String("kind", string(rs.Kind)),
			zap.Error(err),
		)
		s.releasePreview()
	} else {
		old := s.preview
		s.preview = s.cfg.Handles.Create(data, FileName(rs.Kind, rs.Filter, "pdf"), ContentTypePDF)
		if old != nil {
			s.cfg.Handles.Revoke(old.Handle)
		}
	}

	if s.state == StatePreviewing {
		_ = s.transition(StateReady)
	}
}

func (s *Session) renderDocument(ctx context.Context, rs *ResultSet) ([]byte, error) {
	refs, err := rs.References(ctx, s.cfg.References)
	if err != nil {
		return nil, err
	}
	table := Project(rs.Kind, rs.Records, NewResolver(rs.Kind, refs, s.cfg.Format))
	return s.cfg.Document.Render(rs.Kind, table, rs.GeneratedAt)
}

// ExportDocument renders the PDF for the current result set
func (s *Session) ExportDocument(ctx context.Context) (*Export, error) {
	rs, err := s.beginExport()
	if err != nil {
		return nil, err
	}
	data, err := s.renderDocument(ctx, rs)
	s.endExport()
	if err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}

	return &Export{
		Data:        data,
		FileName:    FileName(rs.Kind, rs.Filter, "pdf"),
		ContentType: ContentTypePDF,
	}, nil
}

// ExportSpreadsheet writes every field of the current result set with
// timestamps as locale strings and reference ids left unresolved
func (s *Session) ExportSpreadsheet(ctx context.Context, format SpreadsheetFormat) (*Export, error) {
	if format != SpreadsheetFormatXLSX && format != SpreadsheetFormatCSV {
		return nil, invalidError("format", "unsupported spreadsheet format: "+string(format))
	}
	rs, err := s.beginExport()
	if err != nil {
		return nil, err
	}
	data, err := SpreadsheetExporter{}.Render(ToDisplayAll(rs.Records, s.cfg.Format), format)
	s.endExport()
	if err != nil {
		return nil, fmt.Errorf("failed to export spreadsheet: %w", err)
	}

	return &Export{
		Data:        data,
		FileName:    FileName(rs.Kind, rs.Filter, string(format)),
		ContentType: SpreadsheetContentType(format),
	}, nil
}

func (s *Session) beginExport() (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.result == nil {
		return nil, ErrNoResultSet
	}
	if err := s.transition(StateExporting); err != nil {
		return nil, err
	}
	s.touch()
	return s.result, nil
}

// endExport returns to previewing while a newer preview is still rendering
func (s *Session) endExport() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateExporting {
		return
	}
	if s.previewSeq != s.seq {
		_ = s.transition(StatePreviewing)
		return
	}
	_ = s.transition(StateReady)
}

// Dismiss clears the result set and returns to idle
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateIdle {
		return nil
	}
	if err := s.transition(StateIdle); err != nil {
		return err
	}
	s.kind = ""
	s.pending = Filter{}
	s.notice = ""
	s.lastErr = nil
	s.clearResult()
	s.touch()
	return nil
}

// Close tears the session down, releasing any preview handle. In-flight
// previews finish in the background and are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.seq++
	s.result = nil
	s.releasePreview()
}

// Wait blocks until every scheduled preview render has finished
func (s *Session) Wait() {
	s.wg.Wait()
}

// checkIdleForGeneration rejects new work on closed or busy sessions. Caller holds s.mu.
func (s *Session) checkIdleForGeneration() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateFetching {
		return ErrGenerationInProgress
	}
	s.touch()
	return nil
}

// transition moves to state if the table allows it. Caller holds s.mu.
func (s *Session) transition(to SessionState) error {
	from := s.state
	if err := sessionMachine.Transition(string(from), string(to)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	s.state = to
	s.cfg.Logger.Debug("Report session transition",
		zap.String("session_id", s.id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// clearResult drops the result set and its preview and invalidates any
// in-flight render. Caller holds s.mu.
func (s *Session) clearResult() {
	s.result = nil
	s.seq++
	s.previewSeq = s.seq
	s.releasePreview()
}

// releasePreview revokes the held handle. Caller holds s.mu.
func (s *Session) releasePreview() {
	if s.preview == nil {
		return
	}
	s.cfg.Handles.Revoke(s.preview.Handle)
	s.preview = nil
}

func (s *Session) touch() {
	s.lastActive = s.cfg.Now()
}
