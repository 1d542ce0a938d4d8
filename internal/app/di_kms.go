package app

import (
	"context"
	"fmt"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsHTTP "github.com/keyloft/keyloft/internal/kms/http"
	kmsRepository "github.com/keyloft/keyloft/internal/kms/repository"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
	kmsUsecase "github.com/keyloft/keyloft/internal/kms/usecase"
)

// RootStrategy returns the root key strategy for the configured provider.
func (c *Container) RootStrategy() (kmsService.RootStrategy, error) {
	c.rootStrategyInit.Do(func() {
		strategy, err := c.initRootStrategy()
		if err != nil {
			c.initErrors["rootStrategy"] = err
			return
		}
		c.rootStrategy = strategy
	})
	if storedErr, exists := c.initErrors["rootStrategy"]; exists {
		return nil, storedErr
	}
	return c.rootStrategy, nil
}

// EnvelopeCipher returns the envelope cipher used to seal key material and
// payloads.
func (c *Container) EnvelopeCipher() kmsService.EnvelopeCipher {
	if c.envelopeCipher == nil {
		c.envelopeCipher = kmsService.NewEnvelopeCipher(kmsService.NewAEADManager())
	}
	return c.envelopeCipher
}

// ExternalKeeper returns the keeper forwarding crypto operations on external
// keys to their provider.
func (c *Container) ExternalKeeper() kmsService.ExternalKeeper {
	if c.externalKeeper == nil {
		c.externalKeeper = kmsService.NewExternalKeeper()
	}
	return c.externalKeeper
}

// KeyHierarchyUseCase returns the key hierarchy use case instance.
func (c *Container) KeyHierarchyUseCase() (kmsUsecase.KeyHierarchyUseCase, error) {
	c.keyHierarchyUseCaseInit.Do(func() {
		useCase, err := c.initKeyHierarchyUseCase()
		if err != nil {
			c.initErrors["keyHierarchyUseCase"] = err
			return
		}
		c.keyHierarchyUseCase = useCase
	})
	if storedErr, exists := c.initErrors["keyHierarchyUseCase"]; exists {
		return nil, storedErr
	}
	return c.keyHierarchyUseCase, nil
}

// initRootStrategy builds the root key strategy for the configured provider.
func (c *Container) initRootStrategy() (kmsService.RootStrategy, error) {
	switch c.config.RootKeyProvider {
	case "software":
		chain, err := kmsDomain.LoadRootKeyChainFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load root key chain: %w", err)
		}
		alg, err := kmsDomain.ParseAlgorithm(c.config.DefaultSymmetricAlgorithm)
		if err != nil {
			return nil, fmt.Errorf("invalid default symmetric algorithm: %w", err)
		}
		return kmsService.NewSoftwareRootStrategy(chain, c.EnvelopeCipher(), alg), nil
	case "kms":
		if c.config.RootKeyKMSURI == "" {
			return nil, fmt.Errorf("ROOT_KEY_KMS_URI is required when ROOT_KEY_PROVIDER is kms")
		}
		return kmsService.NewKeeperRootStrategy(context.Background(), c.config.RootKeyKMSURI)
	default:
		return nil, fmt.Errorf("unsupported root key provider: %s", c.config.RootKeyProvider)
	}
}

// initKeyRepository creates the key repository for the configured driver.
func (c *Container) initKeyRepository() (kmsUsecase.KeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return kmsRepository.NewMySQLKeyRepository(db), nil
	case "postgres":
		return kmsRepository.NewPostgreSQLKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initKeyHierarchyUseCase assembles the key hierarchy use case.
func (c *Container) initKeyHierarchyUseCase() (kmsUsecase.KeyHierarchyUseCase, error) {
	keyRepo, err := c.initKeyRepository()
	if err != nil {
		return nil, err
	}
	rootStrategy, err := c.RootStrategy()
	if err != nil {
		return nil, err
	}
	symmetricAlg, err := kmsDomain.ParseAlgorithm(c.config.DefaultSymmetricAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid default symmetric algorithm: %w", err)
	}
	signingAlg, err := kmsDomain.ParseSigningAlgorithm(c.config.DefaultSigningAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid default signing algorithm: %w", err)
	}

	useCase := kmsUsecase.NewKeyHierarchyUseCase(
		keyRepo,
		c.EnvelopeCipher(),
		rootStrategy,
		c.ExternalKeeper(),
		symmetricAlg,
		signingAlg,
		c.config.MaxPlaintextBytes,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return kmsUsecase.NewKeyHierarchyUseCaseWithMetrics(useCase, businessMetrics), nil
}

// keyHandler creates the key HTTP handler.
func (c *Container) keyHandler() (*kmsHTTP.KeyHandler, error) {
	useCase, err := c.KeyHierarchyUseCase()
	if err != nil {
		return nil, err
	}
	return kmsHTTP.NewKeyHandler(useCase, c.Authorizer(), c.Logger()), nil
}
