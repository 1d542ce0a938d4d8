package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/keyloft/keyloft/internal/config"
	kmsHTTP "github.com/keyloft/keyloft/internal/kms/http"
	"github.com/keyloft/keyloft/internal/metrics"
	secretsHTTP "github.com/keyloft/keyloft/internal/secrets/http"
	sshcaHTTP "github.com/keyloft/keyloft/internal/sshca/http"
)

// Handlers groups the per-feature HTTP handlers mounted on the server.
type Handlers struct {
	Key    *kmsHTTP.KeyHandler
	Secret *secretsHTTP.SecretHandler
	Host   *sshcaHTTP.HostHandler
}

// Server represents the HTTP API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates the API server with routing and middleware configured.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
	handlers Handlers,
) *Server {
	router := gin.New()
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowedOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsEnabled && metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", readyHandler)

	registerRoutes(router, handlers)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		logger: logger,
	}
}

// registerRoutes mounts the feature handlers under /v1.
func registerRoutes(router *gin.Engine, handlers Handlers) {
	v1 := router.Group("/v1")

	if handlers.Key != nil {
		projects := v1.Group("/projects/:project_id")
		projects.POST("/keys", handlers.Key.CreateHandler)
		projects.POST("/keys/rotate", handlers.Key.RotateHandler)
		projects.POST("/keys/import", handlers.Key.ImportHandler)
		projects.POST("/keys/external", handlers.Key.RegisterExternalHandler)

		keys := v1.Group("/keys/:key_id")
		keys.POST("/encrypt", handlers.Key.EncryptHandler)
		keys.POST("/decrypt", handlers.Key.DecryptHandler)
		keys.POST("/sign", handlers.Key.SignHandler)
		keys.POST("/verify", handlers.Key.VerifyHandler)
	}

	if handlers.Secret != nil {
		secrets := v1.Group("/projects/:project_id/secrets")
		secrets.GET("", handlers.Secret.ListHandler)
		secrets.GET("/:key", handlers.Secret.GetHandler)
		secrets.PUT("/:key", handlers.Secret.WriteHandler)
		secrets.DELETE("/:key", handlers.Secret.DeleteHandler)
	}

	if handlers.Host != nil {
		projectHosts := v1.Group("/projects/:project_id/ssh/hosts")
		projectHosts.POST("", handlers.Host.CreateHandler)
		projectHosts.GET("", handlers.Host.ListHandler)

		hosts := v1.Group("/ssh/hosts/:host_id")
		hosts.GET("", handlers.Host.GetHandler)
		hosts.POST("/certificates/user", handlers.Host.IssueUserCertHandler)
		hosts.POST("/certificates/host", handlers.Host.IssueHostCertHandler)
		hosts.GET("/certificates", handlers.Host.ListCertificatesHandler)
	}
}

// healthHandler reports process liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readyHandler reports readiness to serve traffic.
func readyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
