package app

import (
	"fmt"

	secretsCache "github.com/keyloft/keyloft/internal/secrets/cache"
	secretsHTTP "github.com/keyloft/keyloft/internal/secrets/http"
	secretsRepository "github.com/keyloft/keyloft/internal/secrets/repository"
	secretsUsecase "github.com/keyloft/keyloft/internal/secrets/usecase"
)

// SecretUseCase returns the secret use case instance.
func (c *Container) SecretUseCase() (secretsUsecase.SecretUseCase, error) {
	c.secretUseCaseInit.Do(func() {
		useCase, err := c.initSecretUseCase()
		if err != nil {
			c.initErrors["secretUseCase"] = err
			return
		}
		c.secretUseCase = useCase
	})
	if storedErr, exists := c.initErrors["secretUseCase"]; exists {
		return nil, storedErr
	}
	return c.secretUseCase, nil
}

// initSecretRepository creates the secret repository for the configured driver.
func (c *Container) initSecretRepository() (secretsUsecase.SecretRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return secretsRepository.NewMySQLSecretRepository(db), nil
	case "postgres":
		return secretsRepository.NewPostgreSQLSecretRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSecretCache creates the version-stamped secret cache.
func (c *Container) initSecretCache() (*secretsCache.SecretCache, error) {
	store, err := c.KeyValueStore()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	return secretsCache.NewSecretCache(store, businessMetrics, c.Logger(), secretsCache.Config{
		ProductVersion:  c.config.CacheProductVersion,
		EntryTTL:        c.config.CacheTTL,
		VersionTTL:      c.config.CacheVersionTTL,
		MaxPayloadBytes: c.config.CacheMaxPayloadBytes,
	}), nil
}

// initSecretUseCase assembles the secret use case.
func (c *Container) initSecretUseCase() (secretsUsecase.SecretUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	secretRepo, err := c.initSecretRepository()
	if err != nil {
		return nil, err
	}
	secretCache, err := c.initSecretCache()
	if err != nil {
		return nil, err
	}
	keyHierarchy, err := c.KeyHierarchyUseCase()
	if err != nil {
		return nil, err
	}

	useCase := secretsUsecase.NewSecretUseCase(
		txManager,
		secretRepo,
		secretCache,
		keyHierarchy,
		c.Authorizer(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return secretsUsecase.NewSecretUseCaseWithMetrics(useCase, businessMetrics), nil
}

// secretHandler creates the secret HTTP handler.
func (c *Container) secretHandler() (*secretsHTTP.SecretHandler, error) {
	useCase, err := c.SecretUseCase()
	if err != nil {
		return nil, err
	}
	return secretsHTTP.NewSecretHandler(useCase, c.Logger()), nil
}
