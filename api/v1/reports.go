package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/cruzrowellt2024/AssetONE-sub001/internal/config"
	"github.com/cruzrowellt2024/AssetONE-sub001/internal/reports"
)

// ReportsAPI holds the reports API dependencies
type ReportsAPI struct {
	Handler *reports.Handler
	Service *reports.Service
	Store   reports.Store
}

// SetupReportsAPI sets up the reports API with all dependencies
func SetupReportsAPI(db *mongo.Database, cfg config.ReportsConfig, logger *zap.Logger) (*ReportsAPI, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Create store
	store := reports.NewMongoStore(db)

	// Create service
	service := reports.NewService(store, ServiceConfig(cfg, loc), logger)

	// Create handler
	handler := reports.NewHandler(service, logger)

	return &ReportsAPI{
		Handler: handler,
		Service: service,
		Store:   store,
	}, nil
}

// RegisterReportsRoutes registers the reports routes on the router group
func RegisterReportsRoutes(router *gin.RouterGroup, api *ReportsAPI) {
	api.Handler.RegisterRoutes(router)
}

// Close closes open report sessions
func (a *ReportsAPI) Close() {
	a.Service.Close()
}

// ServiceConfig maps the reports config section onto service options
func ServiceConfig(cfg config.ReportsConfig, loc *time.Location) reports.ServiceConfig {
	return reports.ServiceConfig{
		Locale:   cfg.Locale,
		Location: loc,
		Document: reports.DocumentOptions{
			BrandText:   cfg.BrandText,
			BrandLogo:   cfg.LogoPath,
			PageSize:    cfg.PageSize,
			Orientation: cfg.Orientation,
		},
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.CleanupInterval,
	}
}
