package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/config"
)

func TestServiceConfig(t *testing.T) {
	cfg := config.Default().Reports
	cfg.LogoPath = "/etc/assetone/logo.png"

	got := ServiceConfig(cfg, time.UTC)

	assert.Equal(t, "en-US", got.Locale)
	assert.Equal(t, time.UTC, got.Location)
	assert.Equal(t, "AssetONE", got.Document.BrandText)
	assert.Equal(t, "/etc/assetone/logo.png", got.Document.BrandLogo)
	assert.Equal(t, "L", got.Document.Orientation)
	assert.Equal(t, 30*time.Minute, got.SessionTTL)
}

func TestSetupReportsAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Connect does not dial; the catalog route never touches the database
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	cfg := config.Default().Reports
	cfg.Timezone = "UTC"
	api, err := SetupReportsAPI(client.Database("assetone_test"), cfg, zap.NewNop())
	require.NoError(t, err)
	defer api.Close()

	router := gin.New()
	RegisterReportsRoutes(router.Group("/api/v1"), api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/catalog", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	cfg.Timezone = "Mars/Olympus"
	_, err = SetupReportsAPI(client.Database("assetone_test"), cfg, zap.NewNop())
	assert.Error(t, err)
}
