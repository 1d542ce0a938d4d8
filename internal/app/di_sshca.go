package app

import (
	"fmt"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	sshcaHTTP "github.com/keyloft/keyloft/internal/sshca/http"
	sshcaRepository "github.com/keyloft/keyloft/internal/sshca/repository"
	sshcaUsecase "github.com/keyloft/keyloft/internal/sshca/usecase"
)

// SSHUseCase returns the SSH certificate issuer use case instance.
func (c *Container) SSHUseCase() (sshcaUsecase.SSHUseCase, error) {
	c.sshUseCaseInit.Do(func() {
		useCase, err := c.initSSHUseCase()
		if err != nil {
			c.initErrors["sshUseCase"] = err
			return
		}
		c.sshUseCase = useCase
	})
	if storedErr, exists := c.initErrors["sshUseCase"]; exists {
		return nil, storedErr
	}
	return c.sshUseCase, nil
}

// initSSHRepositories creates the CA, host, and certificate repositories for
// the configured driver.
func (c *Container) initSSHRepositories() (
	sshcaUsecase.CARepository,
	sshcaUsecase.HostRepository,
	sshcaUsecase.CertificateRepository,
	error,
) {
	db, err := c.DB()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get database for ssh repositories: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return sshcaRepository.NewMySQLCARepository(db),
			sshcaRepository.NewMySQLHostRepository(db),
			sshcaRepository.NewMySQLCertificateRepository(db),
			nil
	case "postgres":
		return sshcaRepository.NewPostgreSQLCARepository(db),
			sshcaRepository.NewPostgreSQLHostRepository(db),
			sshcaRepository.NewPostgreSQLCertificateRepository(db),
			nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSSHUseCase assembles the SSH certificate issuer use case.
func (c *Container) initSSHUseCase() (sshcaUsecase.SSHUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	caRepo, hostRepo, certRepo, err := c.initSSHRepositories()
	if err != nil {
		return nil, err
	}
	keyHierarchy, err := c.KeyHierarchyUseCase()
	if err != nil {
		return nil, err
	}
	caAlgorithm, err := kmsDomain.ParseSigningAlgorithm(c.config.DefaultCertKeyAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid default certificate key algorithm: %w", err)
	}

	useCase := sshcaUsecase.NewSSHUseCase(
		txManager,
		caRepo,
		hostRepo,
		certRepo,
		keyHierarchy,
		c.Authorizer(),
		c.PrincipalDirectory(),
		caAlgorithm,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return sshcaUsecase.NewSSHUseCaseWithMetrics(useCase, businessMetrics), nil
}

// hostHandler creates the SSH host HTTP handler.
func (c *Container) hostHandler() (*sshcaHTTP.HostHandler, error) {
	useCase, err := c.SSHUseCase()
	if err != nil {
		return nil, err
	}
	return sshcaHTTP.NewHostHandler(useCase, c.Logger()), nil
}
