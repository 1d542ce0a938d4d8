// Package mocks provides mock implementations for testing the SSH
// certificate issuer use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/keyloft/keyloft/internal/authz"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// MockCARepository is a mock implementation of CARepository for testing.
type MockCARepository struct {
	mock.Mock
}

// Create mocks the Create method of CARepository.
func (m *MockCARepository) Create(ctx context.Context, ca *sshcaDomain.CertificateAuthority) error {
	args := m.Called(ctx, ca)
	return args.Error(0)
}

// GetByID mocks the GetByID method of CARepository.
func (m *MockCARepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.CertificateAuthority, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaDomain.CertificateAuthority), args.Error(1)
}

// GetByProjectAndRole mocks the GetByProjectAndRole method of CARepository.
func (m *MockCARepository) GetByProjectAndRole(
	ctx context.Context,
	projectID uuid.UUID,
	role sshcaDomain.CARole,
) (*sshcaDomain.CertificateAuthority, error) {
	args := m.Called(ctx, projectID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaDomain.CertificateAuthority), args.Error(1)
}

// MockHostRepository is a mock implementation of HostRepository for testing.
type MockHostRepository struct {
	mock.Mock
}

// Create mocks the Create method of HostRepository.
func (m *MockHostRepository) Create(ctx context.Context, host *sshcaDomain.Host) error {
	args := m.Called(ctx, host)
	return args.Error(0)
}

// GetByID mocks the GetByID method of HostRepository.
func (m *MockHostRepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.Host, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaDomain.Host), args.Error(1)
}

// ListByProject mocks the ListByProject method of HostRepository.
func (m *MockHostRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*sshcaDomain.Host, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sshcaDomain.Host), args.Error(1)
}

// MockCertificateRepository is a mock implementation of CertificateRepository
// for testing.
type MockCertificateRepository struct {
	mock.Mock
}

// Create mocks the Create method of CertificateRepository.
func (m *MockCertificateRepository) Create(ctx context.Context, cert *sshcaDomain.Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

// ListByHost mocks the ListByHost method of CertificateRepository.
func (m *MockCertificateRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]*sshcaDomain.Certificate, error) {
	args := m.Called(ctx, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sshcaDomain.Certificate), args.Error(1)
}

// MockPrincipalDirectory is a mock implementation of authz.PrincipalDirectory
// for testing.
type MockPrincipalDirectory struct {
	mock.Mock
}

// PrincipalsFor mocks the PrincipalsFor method of PrincipalDirectory.
func (m *MockPrincipalDirectory) PrincipalsFor(ctx context.Context, actor authz.Actor) ([]string, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// UserExists mocks the UserExists method of PrincipalDirectory.
func (m *MockPrincipalDirectory) UserExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// HasProjectAccess mocks the HasProjectAccess method of PrincipalDirectory.
func (m *MockPrincipalDirectory) HasProjectAccess(ctx context.Context, username string, projectID uuid.UUID) (bool, error) {
	args := m.Called(ctx, username, projectID)
	return args.Bool(0), args.Error(1)
}
