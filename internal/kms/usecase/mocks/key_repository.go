// Package mocks provides mock implementations for testing key hierarchy
// use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// MockKeyRepository is a mock implementation of KeyRepository for testing.
type MockKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method of KeyRepository.
func (m *MockKeyRepository) Create(ctx context.Context, key *kmsDomain.Key) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// GetByID mocks the GetByID method of KeyRepository.
func (m *MockKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*kmsDomain.Key, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

// GetReserved mocks the GetReserved method of KeyRepository.
func (m *MockKeyRepository) GetReserved(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
) (*kmsDomain.Key, error) {
	args := m.Called(ctx, scope, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

// MockExternalKeeper is a mock implementation of the external keeper used
// for provider-managed keys.
type MockExternalKeeper struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of ExternalKeeper.
func (m *MockExternalKeeper) Encrypt(ctx context.Context, ref string, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, ref, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Decrypt mocks the Decrypt method of ExternalKeeper.
func (m *MockExternalKeeper) Decrypt(ctx context.Context, ref string, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ref, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
