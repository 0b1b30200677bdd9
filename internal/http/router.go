package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-credentials/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-credentials/internal/http/middleware"
	"github.com/yungbote/neurobridge-credentials/internal/observability"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	HTTPMetrics    *observability.HTTPMetrics
	MetricsHandler http.Handler

	AuthMiddleware *httpMW.AuthMiddleware
	// OpsToken enables the coordinator endpoints when set.
	OpsToken string

	CredentialHandler *httpH.CredentialHandler
	VerifyHandler     *httpH.VerifyHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.HTTPMetrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api")

	// Public verification
	if cfg.VerifyHandler != nil {
		api.GET("/public/credentials/:credentialId/verify", cfg.VerifyHandler.Verify)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Credentials
	if cfg.CredentialHandler != nil {
		protected.GET("/credentials", cfg.CredentialHandler.ListMine)
		protected.POST("/credentials/generate", cfg.CredentialHandler.Generate)
	}

	// Operations
	if cfg.CredentialHandler != nil && cfg.OpsToken != "" {
		ops := api.Group("/credentials/coordinator", httpMW.RequireOpsToken(cfg.OpsToken))
		ops.GET("/status", cfg.CredentialHandler.CoordinatorStatus)
		ops.POST("/cleanup", cfg.CredentialHandler.CoordinatorCleanup)
	}

	return r
}
