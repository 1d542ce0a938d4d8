package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/metrics"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// secretUseCaseWithMetrics decorates SecretUseCase with metrics
// instrumentation.
type secretUseCaseWithMetrics struct {
	next    SecretUseCase
	metrics metrics.BusinessMetrics
}

// NewSecretUseCaseWithMetrics wraps a SecretUseCase with metrics recording.
func NewSecretUseCaseWithMetrics(useCase SecretUseCase, m metrics.BusinessMetrics) SecretUseCase {
	return &secretUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the count and duration for one operation.
func (s *secretUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", operation, status)
	s.metrics.RecordDuration(ctx, "secrets", operation, time.Since(start), status)
}

// List records metrics for listing operations.
func (s *secretUseCaseWithMetrics) List(
	ctx context.Context,
	actor authz.Actor,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	start := time.Now()
	secrets, err := s.next.List(ctx, actor, q)
	s.record(ctx, "secret_list", start, err)
	return secrets, err
}

// Get records metrics for retrieval operations.
func (s *secretUseCaseWithMetrics) Get(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Get(ctx, actor, projectID, folderID, key)
	s.record(ctx, "secret_get", start, err)
	return secret, err
}

// CreateOrUpdate records metrics for write operations.
func (s *secretUseCaseWithMetrics) CreateOrUpdate(
	ctx context.Context,
	actor authz.Actor,
	input CreateSecretInput,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.CreateOrUpdate(ctx, actor, input)
	s.record(ctx, "secret_write", start, err)
	return secret, err
}

// Delete records metrics for delete operations.
func (s *secretUseCaseWithMetrics) Delete(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) error {
	start := time.Now()
	err := s.next.Delete(ctx, actor, projectID, folderID, key)
	s.record(ctx, "secret_delete", start, err)
	return err
}
