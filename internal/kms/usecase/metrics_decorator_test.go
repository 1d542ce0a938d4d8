package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsUsecaseMocks "github.com/keyloft/keyloft/internal/kms/usecase/mocks"
	"github.com/keyloft/keyloft/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordCacheEvent(ctx context.Context, domain, event string) {
	m.Called(ctx, domain, event)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestKeyHierarchyMetricsDecorator(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.Must(uuid.NewV7())
	scope := kmsDomain.ProjectScope(projectID)

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockRepo := &kmsUsecaseMocks.MockKeyRepository{}
		mockMetrics := &mockBusinessMetrics{}
		expected := newWrappedSymmetricKey(t, projectID)

		mockRepo.On("GetReserved", ctx, scope, kmsDomain.IntentEncryptDecrypt).
			Return(expected, nil).
			Once()
		mockMetrics.On("RecordOperation", ctx, "kms", "key_resolve", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "kms", "key_resolve", mock.AnythingOfType("time.Duration"), "success").
			Once()

		decorator := NewKeyHierarchyUseCaseWithMetrics(newTestUseCase(mockRepo, nil), mockMetrics)
		key, err := decorator.ResolveOrCreateKey(ctx, scope, kmsDomain.IntentEncryptDecrypt, "")

		require.NoError(t, err)
		assert.Equal(t, expected.ID, key.ID)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockRepo := &kmsUsecaseMocks.MockKeyRepository{}
		mockMetrics := &mockBusinessMetrics{}
		keyID := uuid.Must(uuid.NewV7())

		mockRepo.On("GetByID", ctx, keyID).Return(nil, apperrors.ErrNotFound)
		mockMetrics.On("RecordOperation", ctx, "kms", "encrypt", "error").Once()
		mockMetrics.On("RecordDuration", ctx, "kms", "encrypt", mock.AnythingOfType("time.Duration"), "error").
			Once()

		decorator := NewKeyHierarchyUseCaseWithMetrics(newTestUseCase(mockRepo, nil), mockMetrics)
		_, err := decorator.Encrypt(ctx, keyID, []byte("value"), nil)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockMetrics.AssertExpectations(t)
	})
}
