package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	"github.com/keyloft/keyloft/internal/metrics"
)

// keyHierarchyUseCaseWithMetrics decorates KeyHierarchyUseCase with metrics
// instrumentation.
type keyHierarchyUseCaseWithMetrics struct {
	next    KeyHierarchyUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyHierarchyUseCaseWithMetrics wraps a KeyHierarchyUseCase with metrics
// recording.
func NewKeyHierarchyUseCaseWithMetrics(useCase KeyHierarchyUseCase, m metrics.BusinessMetrics) KeyHierarchyUseCase {
	return &keyHierarchyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the count and duration for one operation.
func (k *keyHierarchyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	k.metrics.RecordOperation(ctx, "kms", operation, status)
	k.metrics.RecordDuration(ctx, "kms", operation, time.Since(start), status)
}

// ResolveOrCreateKey records metrics for key resolution operations.
func (k *keyHierarchyUseCaseWithMetrics) ResolveOrCreateKey(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	algorithm string,
) (*kmsDomain.Key, error) {
	start := time.Now()
	key, err := k.next.ResolveOrCreateKey(ctx, scope, intent, algorithm)
	k.record(ctx, "key_resolve", start, err)
	return key, err
}

// ImportKeyMaterial records metrics for key import operations.
func (k *keyHierarchyUseCaseWithMetrics) ImportKeyMaterial(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	algorithm string,
	material []byte,
) (*kmsDomain.Key, error) {
	start := time.Now()
	key, err := k.next.ImportKeyMaterial(ctx, scope, intent, algorithm, material)
	k.record(ctx, "key_import", start, err)
	return key, err
}

// RegisterExternalKey records metrics for external key registration.
func (k *keyHierarchyUseCaseWithMetrics) RegisterExternalKey(
	ctx context.Context,
	scope kmsDomain.Scope,
	ref string,
) (*kmsDomain.Key, error) {
	start := time.Now()
	key, err := k.next.RegisterExternalKey(ctx, scope, ref)
	k.record(ctx, "key_register_external", start, err)
	return key, err
}

// Rotate records metrics for key rotation operations.
func (k *keyHierarchyUseCaseWithMetrics) Rotate(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
) (*kmsDomain.Key, error) {
	start := time.Now()
	key, err := k.next.Rotate(ctx, scope, intent)
	k.record(ctx, "key_rotate", start, err)
	return key, err
}

// Encrypt records metrics for encrypt operations.
func (k *keyHierarchyUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	keyID uuid.UUID,
	plaintext, aad []byte,
) ([]byte, error) {
	start := time.Now()
	ciphertext, err := k.next.Encrypt(ctx, keyID, plaintext, aad)
	k.record(ctx, "encrypt", start, err)
	return ciphertext, err
}

// Decrypt records metrics for decrypt operations.
func (k *keyHierarchyUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	keyID uuid.UUID,
	ciphertext, aad []byte,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := k.next.Decrypt(ctx, keyID, ciphertext, aad)
	k.record(ctx, "decrypt", start, err)
	return plaintext, err
}

// Sign records metrics for sign operations.
func (k *keyHierarchyUseCaseWithMetrics) Sign(ctx context.Context, keyID uuid.UUID, algorithm string, data []byte) ([]byte, error) {
	start := time.Now()
	signature, err := k.next.Sign(ctx, keyID, algorithm, data)
	k.record(ctx, "sign", start, err)
	return signature, err
}

// Verify records metrics for verify operations.
func (k *keyHierarchyUseCaseWithMetrics) Verify(
	ctx context.Context,
	keyID uuid.UUID,
	algorithm string,
	data, signature []byte,
) (bool, error) {
	start := time.Now()
	valid, err := k.next.Verify(ctx, keyID, algorithm, data, signature)
	k.record(ctx, "verify", start, err)
	return valid, err
}
