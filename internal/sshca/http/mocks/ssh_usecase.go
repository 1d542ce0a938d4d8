// Package mocks provides mock implementations for sshca HTTP handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/keyloft/keyloft/internal/authz"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
	sshcaUseCase "github.com/keyloft/keyloft/internal/sshca/usecase"
)

// MockSSHUseCase is a mock implementation of usecase.SSHUseCase.
type MockSSHUseCase struct {
	mock.Mock
}

func (m *MockSSHUseCase) CreateHost(ctx context.Context, actor authz.Actor, input sshcaUseCase.CreateHostInput) (*sshcaDomain.Host, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaDomain.Host), args.Error(1)
}

func (m *MockSSHUseCase) GetHost(ctx context.Context, actor authz.Actor, hostID uuid.UUID) (*sshcaDomain.Host, error) {
	args := m.Called(ctx, actor, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaDomain.Host), args.Error(1)
}

func (m *MockSSHUseCase) ListHosts(ctx context.Context, actor authz.Actor, projectID uuid.UUID) ([]*sshcaDomain.Host, error) {
	args := m.Called(ctx, actor, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sshcaDomain.Host), args.Error(1)
}

func (m *MockSSHUseCase) IssueUserCertificate(ctx context.Context, actor authz.Actor, hostID uuid.UUID, loginUser string) (*sshcaUseCase.IssuedCertificate, error) {
	args := m.Called(ctx, actor, hostID, loginUser)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaUseCase.IssuedCertificate), args.Error(1)
}

func (m *MockSSHUseCase) IssueHostCertificate(ctx context.Context, actor authz.Actor, hostID uuid.UUID, publicKey []byte) (*sshcaUseCase.IssuedCertificate, error) {
	args := m.Called(ctx, actor, hostID, publicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sshcaUseCase.IssuedCertificate), args.Error(1)
}

func (m *MockSSHUseCase) ListCertificates(ctx context.Context, actor authz.Actor, hostID uuid.UUID) ([]*sshcaDomain.Certificate, error) {
	args := m.Called(ctx, actor, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sshcaDomain.Certificate), args.Error(1)
}
