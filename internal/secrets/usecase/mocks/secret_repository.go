// Package mocks provides mock implementations for testing secret use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// MockSecretRepository is a mock implementation of SecretRepository for
// testing.
type MockSecretRepository struct {
	mock.Mock
}

// Create mocks the Create method of SecretRepository.
func (m *MockSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

// Update mocks the Update method of SecretRepository.
func (m *MockSecretRepository) Update(ctx context.Context, secret *secretsDomain.Secret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

// GetByKey mocks the GetByKey method of SecretRepository.
func (m *MockSecretRepository) GetByKey(
	ctx context.Context,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, projectID, folderID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// List mocks the List method of SecretRepository.
func (m *MockSecretRepository) List(
	ctx context.Context,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

// Delete mocks the Delete method of SecretRepository.
func (m *MockSecretRepository) Delete(ctx context.Context, secretID uuid.UUID) error {
	args := m.Called(ctx, secretID)
	return args.Error(0)
}
