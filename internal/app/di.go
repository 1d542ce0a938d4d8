// Package app provides the dependency injection container assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/config"
	"github.com/keyloft/keyloft/internal/database"
	"github.com/keyloft/keyloft/internal/http"
	"github.com/keyloft/keyloft/internal/keyvalue"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
	kmsUsecase "github.com/keyloft/keyloft/internal/kms/usecase"
	"github.com/keyloft/keyloft/internal/metrics"
	secretsUsecase "github.com/keyloft/keyloft/internal/secrets/usecase"
	sshcaUsecase "github.com/keyloft/keyloft/internal/sshca/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	keyValueStore   keyvalue.Store
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Cryptography
	rootStrategy   kmsService.RootStrategy
	envelopeCipher kmsService.EnvelopeCipher
	externalKeeper kmsService.ExternalKeeper

	// Use cases
	keyHierarchyUseCase kmsUsecase.KeyHierarchyUseCase
	secretUseCase       secretsUsecase.SecretUseCase
	sshUseCase          sshcaUsecase.SSHUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	txManagerInit           sync.Once
	keyValueStoreInit       sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	rootStrategyInit        sync.Once
	keyHierarchyUseCaseInit sync.Once
	secretUseCaseInit       sync.Once
	sshUseCaseInit          sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// KeyValueStore returns the key-value store backing the secret cache.
func (c *Container) KeyValueStore() (keyvalue.Store, error) {
	c.keyValueStoreInit.Do(func() {
		store, err := c.initKeyValueStore()
		if err != nil {
			c.initErrors["keyValueStore"] = err
			return
		}
		c.keyValueStore = store
	})
	if storedErr, exists := c.initErrors["keyValueStore"]; exists {
		return nil, storedErr
	}
	return c.keyValueStore, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		m, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = m
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// Authorizer returns the authorization policy. Policy enforcement is
// expected in the fronting layer, so the default permits everything.
func (c *Container) Authorizer() authz.Authorizer {
	return authz.AllowAll{}
}

// PrincipalDirectory returns the identity directory backing SSH login
// mappings.
func (c *Container) PrincipalDirectory() authz.PrincipalDirectory {
	return authz.SelfDirectory{}
}

// HTTPServer returns the HTTP API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if closer, ok := c.rootStrategy.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("root strategy close: %w", err))
		}
	}

	if store, ok := c.keyValueStore.(*keyvalue.RedisStore); ok && store != nil {
		if err := store.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initKeyValueStore creates the key-value store for the configured backend.
func (c *Container) initKeyValueStore() (keyvalue.Store, error) {
	switch c.config.CacheBackend {
	case "redis":
		return keyvalue.NewRedisStore(c.config.RedisAddr, c.config.RedisDB), nil
	case "memory":
		return keyvalue.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", c.config.CacheBackend)
	}
}

// initHTTPServer creates the HTTP API server with all feature handlers.
func (c *Container) initHTTPServer() (*http.Server, error) {
	keyHandler, err := c.keyHandler()
	if err != nil {
		return nil, err
	}
	secretHandler, err := c.secretHandler()
	if err != nil {
		return nil, err
	}
	hostHandler, err := c.hostHandler()
	if err != nil {
		return nil, err
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	return http.NewServer(c.config, c.Logger(), provider, http.Handlers{
		Key:    keyHandler,
		Secret: secretHandler,
		Host:   hostHandler,
	}), nil
}
