package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, store Store) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(store)
	t.Cleanup(svc.Close)

	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) SessionResponse {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/v1/reports/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StateIdle, resp.State)
	return resp
}

func TestHandler_Catalog(t *testing.T) {
	router, _ := setupRouter(t, seededStore())

	w := doRequest(router, http.MethodGet, "/api/v1/reports/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Kinds []CatalogEntry `json:"kinds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Kinds, 9)
	assert.Equal(t, KindAssets, resp.Kinds[0].Kind)
	assert.Equal(t, "Assets Report", resp.Kinds[0].Title)
}

func TestHandler_GenerateAndExport(t *testing.T) {
	router, svc := setupRouter(t, seededStore())
	session := createSession(t, router)
	base := "/api/v1/reports/sessions/" + session.ID

	w := doRequest(router, http.MethodPost, base+"/generate", GenerateRequest{
		Kind:      "requests",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var gen GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))
	assert.Equal(t, OutcomeReady, gen.Outcome)
	assert.Equal(t, 1, gen.Session.RowCount)

	s, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	s.Wait()

	w = doRequest(router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	require.NotEmpty(t, snapshot.PreviewHandle)
	assert.Equal(t, "/api/v1/reports/previews/"+snapshot.PreviewHandle, snapshot.PreviewURL)

	w = doRequest(router, http.MethodGet, snapshot.PreviewURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	w = doRequest(router, http.MethodGet, base+"/export/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="requests_2024-01-01_to_2024-01-31.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = doRequest(router, http.MethodGet, base+"/export/spreadsheet?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeCSV, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "r1,Broken seat,80,a1,u1,open")

	w = doRequest(router, http.MethodGet, base+"/export/spreadsheet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeXLSX, w.Header().Get("Content-Type"))

	w = doRequest(router, http.MethodGet, base+"/export/spreadsheet?format=ods", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, base+"/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.LiveHandles())

	w = doRequest(router, http.MethodGet, snapshot.PreviewURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SelectThenSubmit(t *testing.T) {
	router, svc := setupRouter(t, seededStore())
	session := createSession(t, router)
	base := "/api/v1/reports/sessions/" + session.ID

	w := doRequest(router, http.MethodPost, base+"/select", SelectKindRequest{Kind: "users"})
	require.Equal(t, http.StatusOK, w.Code)
	var gen GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))
	assert.Equal(t, OutcomeAwaitingFilter, gen.Outcome)

	w = doRequest(router, http.MethodPost, base+"/submit", Filter{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var verr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	assert.Equal(t, "role", verr["field"])
	assert.Equal(t, "required", verr["code"])

	w = doRequest(router, http.MethodPost, base+"/submit", Filter{Role: "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))
	assert.Equal(t, OutcomeReady, gen.Outcome)
	assert.Equal(t, 1, gen.Session.RowCount)

	s, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	s.Wait()
}

func TestHandler_Errors(t *testing.T) {
	store := seededStore()
	store.fail("requests", errors.New("connection reset"))
	router, _ := setupRouter(t, store)
	session := createSession(t, router)
	base := "/api/v1/reports/sessions/" + session.ID

	w := doRequest(router, http.MethodGet, "/api/v1/reports/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodPost, base+"/select", SelectKindRequest{Kind: "invoices"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, base+"/select", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, base+"/export/document", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, base+"/submit", Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, base+"/generate", GenerateRequest{Kind: "requests", StartDate: "2024-01-01", EndDate: "2024-01-31"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doRequest(router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, StateFailed, snapshot.State)

	w = doRequest(router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
