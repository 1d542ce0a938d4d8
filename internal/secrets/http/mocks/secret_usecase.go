// Package mocks provides mock implementations for testing secret HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/keyloft/keyloft/internal/authz"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
	secretsUseCase "github.com/keyloft/keyloft/internal/secrets/usecase"
)

// MockSecretUseCase is a mock implementation of SecretUseCase for testing.
type MockSecretUseCase struct {
	mock.Mock
}

// List mocks the List method of SecretUseCase.
func (m *MockSecretUseCase) List(
	ctx context.Context,
	actor authz.Actor,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

// Get mocks the Get method of SecretUseCase.
func (m *MockSecretUseCase) Get(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, actor, projectID, folderID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// CreateOrUpdate mocks the CreateOrUpdate method of SecretUseCase.
func (m *MockSecretUseCase) CreateOrUpdate(
	ctx context.Context,
	actor authz.Actor,
	input secretsUseCase.CreateSecretInput,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// Delete mocks the Delete method of SecretUseCase.
func (m *MockSecretUseCase) Delete(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) error {
	args := m.Called(ctx, actor, projectID, folderID, key)
	return args.Error(0)
}
