package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
)

// keyHierarchyUseCase implements KeyHierarchyUseCase.
type keyHierarchyUseCase struct {
	keyRepo        KeyRepository
	envelope       kmsService.EnvelopeCipher
	rootStrategy   kmsService.RootStrategy
	externalKeeper kmsService.ExternalKeeper
	symmetricAlg   kmsDomain.Algorithm
	signingAlg     kmsDomain.SigningAlgorithm
	maxPlaintext   int
}

// NewKeyHierarchyUseCase creates a KeyHierarchyUseCase. The default
// algorithms are used for keys created by ResolveOrCreateKey and Rotate.
func NewKeyHierarchyUseCase(
	keyRepo KeyRepository,
	envelope kmsService.EnvelopeCipher,
	rootStrategy kmsService.RootStrategy,
	externalKeeper kmsService.ExternalKeeper,
	symmetricAlg kmsDomain.Algorithm,
	signingAlg kmsDomain.SigningAlgorithm,
	maxPlaintext int,
) KeyHierarchyUseCase {
	return &keyHierarchyUseCase{
		keyRepo:        keyRepo,
		envelope:       envelope,
		rootStrategy:   rootStrategy,
		externalKeeper: externalKeeper,
		symmetricAlg:   symmetricAlg,
		signingAlg:     signingAlg,
		maxPlaintext:   maxPlaintext,
	}
}

// ResolveOrCreateKey returns the reserved key for (scope, intent), creating
// it when absent. A concurrent create that loses the uniqueness race
// re-reads and returns the winning row. A non-empty algorithm overrides the
// configured default when the key is created; an existing reserved key is
// returned as is.
func (k *keyHierarchyUseCase) ResolveOrCreateKey(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	algorithm string,
) (*kmsDomain.Key, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	resolved, err := k.resolveAlgorithm(intent, algorithm)
	if err != nil {
		return nil, err
	}

	key, err := k.keyRepo.GetReserved(ctx, scope, intent)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	key, err = k.createReservedKey(ctx, scope, intent, 1, resolved)
	if errors.Is(err, apperrors.ErrConflict) {
		return k.keyRepo.GetReserved(ctx, scope, intent)
	}
	return key, err
}

// resolveAlgorithm validates a caller-chosen algorithm against the intent's
// family, falling back to the configured default when none is given.
func (k *keyHierarchyUseCase) resolveAlgorithm(intent kmsDomain.KeyIntent, algorithm string) (string, error) {
	switch intent {
	case kmsDomain.IntentEncryptDecrypt:
		if algorithm == "" {
			return string(k.symmetricAlg), nil
		}
		alg, err := kmsDomain.ParseAlgorithm(algorithm)
		if err != nil {
			return "", err
		}
		return string(alg), nil
	case kmsDomain.IntentSignVerify:
		if algorithm == "" {
			return string(k.signingAlg), nil
		}
		alg, err := kmsDomain.ParseSigningAlgorithm(algorithm)
		if err != nil {
			return "", err
		}
		return string(alg), nil
	default:
		return "", kmsDomain.ErrUnsupportedIntent
	}
}

// createReservedKey generates fresh material for the already-resolved
// algorithm, wraps it, and inserts a reserved key row at the given version.
func (k *keyHierarchyUseCase) createReservedKey(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	version uint,
	algorithm string,
) (*kmsDomain.Key, error) {
	var material []byte
	var err error

	switch intent {
	case kmsDomain.IntentEncryptDecrypt:
		material, err = kmsService.GenerateSymmetricKey()
	case kmsDomain.IntentSignVerify:
		material, err = kmsService.GenerateSigningKey(kmsDomain.SigningAlgorithm(algorithm))
	default:
		return nil, kmsDomain.ErrUnsupportedIntent
	}
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(material)

	wrapped, err := k.rootStrategy.Wrap(ctx, material)
	if err != nil {
		return nil, err
	}

	key := &kmsDomain.Key{
		ID:              uuid.Must(uuid.NewV7()),
		OrgID:           scope.OrgID,
		ProjectID:       scope.ProjectID,
		Intent:          intent,
		Algorithm:       algorithm,
		Type:            kmsDomain.KeyTypeInternal,
		IsReserved:      true,
		Version:         version,
		WrappedMaterial: wrapped,
		CreatedAt:       time.Now().UTC(),
	}
	if err := k.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// ImportKeyMaterial registers caller-supplied key material as a
// non-reserved key under the scope.
func (k *keyHierarchyUseCase) ImportKeyMaterial(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
	algorithm string,
	material []byte,
) (*kmsDomain.Key, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	switch intent {
	case kmsDomain.IntentEncryptDecrypt:
		if _, err := kmsDomain.ParseAlgorithm(algorithm); err != nil {
			return nil, err
		}
		if len(material) != 32 {
			return nil, kmsDomain.ErrInvalidKeySize
		}
	case kmsDomain.IntentSignVerify:
		if _, err := kmsDomain.ParseSigningAlgorithm(algorithm); err != nil {
			return nil, err
		}
	default:
		return nil, kmsDomain.ErrUnsupportedIntent
	}

	wrapped, err := k.rootStrategy.Wrap(ctx, material)
	if err != nil {
		return nil, err
	}

	key := &kmsDomain.Key{
		ID:              uuid.Must(uuid.NewV7()),
		OrgID:           scope.OrgID,
		ProjectID:       scope.ProjectID,
		Intent:          intent,
		Algorithm:       algorithm,
		Type:            kmsDomain.KeyTypeInternal,
		IsReserved:      false,
		Version:         1,
		WrappedMaterial: wrapped,
		CreatedAt:       time.Now().UTC(),
	}
	if err := k.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// RegisterExternalKey registers a provider-managed key. No material is
// stored locally; operations are forwarded by reference URI. The keeper API
// only covers encrypt and decrypt, so the intent is fixed.
func (k *keyHierarchyUseCase) RegisterExternalKey(
	ctx context.Context,
	scope kmsDomain.Scope,
	ref string,
) (*kmsDomain.Key, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "external key reference is required")
	}

	key := &kmsDomain.Key{
		ID:          uuid.Must(uuid.NewV7()),
		OrgID:       scope.OrgID,
		ProjectID:   scope.ProjectID,
		Intent:      kmsDomain.IntentEncryptDecrypt,
		Type:        kmsDomain.KeyTypeExternal,
		IsReserved:  false,
		Version:     1,
		ExternalRef: ref,
		CreatedAt:   time.Now().UTC(),
	}
	if err := k.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Rotate inserts a new version of the reserved key for (scope, intent).
// Prior versions are retained so blobs encrypted under them stay
// decryptable.
func (k *keyHierarchyUseCase) Rotate(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
) (*kmsDomain.Key, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	current, err := k.keyRepo.GetReserved(ctx, scope, intent)
	if err != nil {
		return nil, err
	}

	key, err := k.createReservedKey(ctx, scope, intent, current.Version+1, current.Algorithm)
	if errors.Is(err, apperrors.ErrConflict) {
		// A concurrent rotation won; return its row.
		return k.keyRepo.GetReserved(ctx, scope, intent)
	}
	return key, err
}

// Encrypt encrypts plaintext under the key identified by keyID.
func (k *keyHierarchyUseCase) Encrypt(
	ctx context.Context,
	keyID uuid.UUID,
	plaintext, aad []byte,
) ([]byte, error) {
	if k.maxPlaintext > 0 && len(plaintext) > k.maxPlaintext {
		return nil, kmsDomain.ErrPlaintextTooLarge
	}

	key, err := k.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key.Intent != kmsDomain.IntentEncryptDecrypt {
		return nil, kmsDomain.ErrIntentMismatch
	}

	if key.Type == kmsDomain.KeyTypeExternal {
		if len(aad) > 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "associated data is not supported for external keys")
		}
		return k.externalKeeper.Encrypt(ctx, key.ExternalRef, plaintext)
	}

	alg, err := kmsDomain.ParseAlgorithm(key.Algorithm)
	if err != nil {
		return nil, err
	}

	material, err := k.rootStrategy.Unwrap(ctx, key.WrappedMaterial)
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(material)

	blob, err := k.envelope.Encrypt(material, alg, plaintext, aad)
	if err != nil {
		return nil, err
	}
	return blob.Bytes(), nil
}

// Decrypt reverses Encrypt for the key identified by keyID.
func (k *keyHierarchyUseCase) Decrypt(
	ctx context.Context,
	keyID uuid.UUID,
	ciphertext, aad []byte,
) ([]byte, error) {
	key, err := k.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key.Intent != kmsDomain.IntentEncryptDecrypt {
		return nil, kmsDomain.ErrIntentMismatch
	}

	if key.Type == kmsDomain.KeyTypeExternal {
		if len(aad) > 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "associated data is not supported for external keys")
		}
		return k.externalKeeper.Decrypt(ctx, key.ExternalRef, ciphertext)
	}

	blob, err := kmsDomain.ParseEncryptedBlob(ciphertext)
	if err != nil {
		return nil, err
	}

	material, err := k.rootStrategy.Unwrap(ctx, key.WrappedMaterial)
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(material)

	return k.envelope.Decrypt(material, blob, aad)
}

// Sign signs data with the key identified by keyID. A non-empty algorithm
// selects the scheme and digest, and must match the key material's family;
// empty uses the key's registered algorithm.
func (k *keyHierarchyUseCase) Sign(ctx context.Context, keyID uuid.UUID, algorithm string, data []byte) ([]byte, error) {
	key, alg, err := k.signingKey(ctx, keyID, algorithm)
	if err != nil {
		return nil, err
	}

	material, err := k.rootStrategy.Unwrap(ctx, key.WrappedMaterial)
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(material)

	return k.envelope.Sign(material, alg, data)
}

// Verify reports whether signature is valid for data under the key. The
// algorithm is resolved the same way as for Sign.
func (k *keyHierarchyUseCase) Verify(
	ctx context.Context,
	keyID uuid.UUID,
	algorithm string,
	data, signature []byte,
) (bool, error) {
	key, alg, err := k.signingKey(ctx, keyID, algorithm)
	if err != nil {
		return false, err
	}

	material, err := k.rootStrategy.Unwrap(ctx, key.WrappedMaterial)
	if err != nil {
		return false, err
	}
	defer kmsDomain.Zero(material)

	return k.envelope.Verify(material, alg, data, signature)
}

// signingKey loads a key, checks it can sign, and resolves the scheme. A
// caller-chosen algorithm wins over the registered one; a mismatch with the
// key material surfaces from the envelope as ErrKeyAlgorithmMismatch.
func (k *keyHierarchyUseCase) signingKey(
	ctx context.Context,
	keyID uuid.UUID,
	algorithm string,
) (*kmsDomain.Key, kmsDomain.SigningAlgorithm, error) {
	key, err := k.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, "", err
	}
	if key.Intent != kmsDomain.IntentSignVerify {
		return nil, "", kmsDomain.ErrIntentMismatch
	}

	if algorithm == "" {
		algorithm = key.Algorithm
	}
	alg, err := kmsDomain.ParseSigningAlgorithm(algorithm)
	if err != nil {
		return nil, "", err
	}
	return key, alg, nil
}
