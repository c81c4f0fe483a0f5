package reports

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reporting operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/catalog", h.getCatalog)

		// Session endpoints
		reports.POST("/sessions", h.createSession)
		reports.GET("/sessions/:id", h.getSession)
		reports.DELETE("/sessions/:id", h.deleteSession)
		reports.POST("/sessions/:id/select", h.selectKind)
		reports.POST("/sessions/:id/submit", h.submitFilter)
		reports.POST("/sessions/:id/generate", h.generate)
		reports.POST("/sessions/:id/dismiss", h.dismiss)

		// Export endpoints
		reports.GET("/sessions/:id/export/document", h.exportDocument)
		reports.GET("/sessions/:id/export/spreadsheet", h.exportSpreadsheet)

		// Preview endpoints
		reports.GET("/previews/:handle", h.getPreview)
	}
}

// getCatalog handles GET /api/v1/reports/catalog
func (h *Handler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": h.service.Catalog()})
}

// =====================================================
// Session Endpoints
// =====================================================

// createSession handles POST /api/v1/reports/sessions
func (h *Handler) createSession(c *gin.Context) {
	session := h.service.CreateSession()
	c.JSON(http.StatusCreated, h.sessionResponse(session))
}

// getSession handles GET /api/v1/reports/sessions/:id
func (h *Handler) getSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(session))
}

// deleteSession handles DELETE /api/v1/reports/sessions/:id
func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.service.CloseSession(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// selectKind handles POST /api/v1/reports/sessions/:id/select
func (h *Handler) selectKind(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req SelectKindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := ParseReportKind(req.Kind)
	if err != nil {
		h.respondError(c, err)
		return
	}

	outcome, err := session.Select(c.Request.Context(), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Outcome: outcome, Session: h.sessionResponse(session)})
}

// submitFilter handles POST /api/v1/reports/sessions/:id/submit
func (h *Handler) submitFilter(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var filter Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := session.Submit(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Outcome: outcome, Session: h.sessionResponse(session)})
}

// generate handles POST /api/v1/reports/sessions/:id/generate
func (h *Handler) generate(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := ParseReportKind(req.Kind)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filter := Filter{StartDate: req.StartDate, EndDate: req.EndDate, Role: req.Role}
	outcome, err := session.Generate(c.Request.Context(), kind, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Outcome: outcome, Session: h.sessionResponse(session)})
}

// dismiss handles POST /api/v1/reports/sessions/:id/dismiss
func (h *Handler) dismiss(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := session.Dismiss(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(session))
}

// =====================================================
// Export Endpoints
// =====================================================

// exportDocument handles GET /api/v1/reports/sessions/:id/export/document
func (h *Handler) exportDocument(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	export, err := session.ExportDocument(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendFile(c, export, "attachment")
}

// exportSpreadsheet handles GET /api/v1/reports/sessions/:id/export/spreadsheet
func (h *Handler) exportSpreadsheet(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	format, err := ParseSpreadsheetFormat(c.DefaultQuery("format", string(SpreadsheetFormatXLSX)))
	if err != nil {
		h.respondError(c, err)
		return
	}

	export, err := session.ExportSpreadsheet(c.Request.Context(), format)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendFile(c, export, "attachment")
}

// getPreview handles GET /api/v1/reports/previews/:handle
func (h *Handler) getPreview(c *gin.Context) {
	artifact, err := h.service.Preview(c.Param("handle"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendFile(c, &Export{
		Data:        artifact.Data,
		FileName:    artifact.FileName,
		ContentType: artifact.ContentType,
	}, "inline")
}

// =====================================================
// Helper Methods
// =====================================================

func (h *Handler) lookupSession(c *gin.Context) (*Session, bool) {
	session, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) sessionResponse(session *Session) SessionResponse {
	resp := session.Snapshot()
	if resp.PreviewHandle != "" {
		resp.PreviewURL = "/api/v1/reports/previews/" + resp.PreviewHandle
	}
	return resp
}

func (h *Handler) sendFile(c *gin.Context, export *Export, disposition string) {
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// respondError maps report errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *ValidationError
	var ferr *FetchError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field, "code": verr.Code})
	case errors.As(err, &ferr):
		h.logger.Error("Report fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrHandleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, ErrGenerationInProgress), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNoResultSet):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Report request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
