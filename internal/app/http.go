package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpx "github.com/yungbote/neurobridge-credentials/internal/http"
	httpH "github.com/yungbote/neurobridge-credentials/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-credentials/internal/http/middleware"
	"github.com/yungbote/neurobridge-credentials/internal/observability"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, db *gorm.DB, serviceset Services, clients Clients, metrics *observability.Metrics) (*gin.Engine, error) {
	log.Info("Wiring router...")
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := map[string]httpH.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.EventBus != nil {
		checks["redis"] = clients.EventBus.Ping
	}

	var httpMetrics *observability.HTTPMetrics
	rc := httpx.RouterConfig{
		Log:         log,
		ServiceName: serviceName,
		CORSOrigins: cfg.CORSOrigins,

		AuthMiddleware: httpMW.NewAuthMiddleware(log, serviceset.Auth),
		OpsToken:       cfg.OpsToken,

		CredentialHandler: httpH.NewCredentialHandler(log, serviceset.Coordinator, serviceset.Credential),
		VerifyHandler:     httpH.NewVerifyHandler(serviceset.Verification),
		HealthHandler:     httpH.NewHealthHandler(checks),
	}
	if metrics != nil {
		m, err := observability.NewHTTPMetrics(metrics.Provider)
		if err != nil {
			return nil, fmt.Errorf("init http metrics: %w", err)
		}
		httpMetrics = m
		rc.MetricsHandler = metrics.Handler
	}
	rc.HTTPMetrics = httpMetrics
	if cfg.OpsToken == "" {
		log.Warn("OPS_API_TOKEN not set, coordinator endpoints disabled")
	}
	return httpx.NewRouter(rc), nil
}
