// Package mocks provides mock implementations for kms HTTP handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// MockKeyHierarchyUseCase is a mock implementation of usecase.KeyHierarchyUseCase.
type MockKeyHierarchyUseCase struct {
	mock.Mock
}

func (m *MockKeyHierarchyUseCase) ResolveOrCreateKey(ctx context.Context, scope kmsDomain.Scope, intent kmsDomain.KeyIntent, algorithm string) (*kmsDomain.Key, error) {
	args := m.Called(ctx, scope, intent, algorithm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) ImportKeyMaterial(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	algorithm string,
	material []byte,
) (*kmsDomain.Key, error) {
	args := m.Called(ctx, scope, intent, algorithm, material)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) RegisterExternalKey(ctx context.Context, scope kmsDomain.Scope, ref string) (*kmsDomain.Key, error) {
	args := m.Called(ctx, scope, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) Rotate(ctx context.Context, scope kmsDomain.Scope, intent kmsDomain.KeyIntent) (*kmsDomain.Key, error) {
	args := m.Called(ctx, scope, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsDomain.Key), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) Encrypt(ctx context.Context, keyID uuid.UUID, plaintext, aad []byte) ([]byte, error) {
	args := m.Called(ctx, keyID, plaintext, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) Decrypt(ctx context.Context, keyID uuid.UUID, ciphertext, aad []byte) ([]byte, error) {
	args := m.Called(ctx, keyID, ciphertext, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) Sign(ctx context.Context, keyID uuid.UUID, algorithm string, data []byte) ([]byte, error) {
	args := m.Called(ctx, keyID, algorithm, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyHierarchyUseCase) Verify(ctx context.Context, keyID uuid.UUID, algorithm string, data, signature []byte) (bool, error) {
	args := m.Called(ctx, keyID, algorithm, data, signature)
	return args.Bool(0), args.Error(1)
}
