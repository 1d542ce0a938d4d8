// Package usecase implements the key hierarchy manager: resolution and
// creation of scoped keys, rotation, and the cryptographic operations
// exposed over them. Key material only exists in plaintext inside a single
// operation and is zeroed before returning.
package usecase

import (
	"context"

	"github.com/google/uuid"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// KeyRepository defines the interface for key persistence operations.
type KeyRepository interface {
	Create(ctx context.Context, key *kmsDomain.Key) error
	GetByID(ctx context.Context, id uuid.UUID) (*kmsDomain.Key, error)
	GetReserved(ctx context.Context, scope kmsDomain.Scope, intent kmsDomain.KeyIntent) (*kmsDomain.Key, error)
}

// KeyHierarchyUseCase defines the business logic for managing the key
// hierarchy and performing cryptographic operations by key id.
type KeyHierarchyUseCase interface {
	// ResolveOrCreateKey returns the reserved key for (scope, intent),
	// creating it when absent. Concurrent creators converge on a single row.
	// An empty algorithm selects the configured default for the intent; a
	// non-empty one must name a known algorithm of the intent's family.
	ResolveOrCreateKey(ctx context.Context, scope kmsDomain.Scope, intent kmsDomain.KeyIntent, algorithm string) (*kmsDomain.Key, error)

	// ImportKeyMaterial registers caller-supplied key material under the
	// scope. Symmetric material must be exactly 32 bytes; signing material
	// must be PKCS#8 DER matching the algorithm.
	ImportKeyMaterial(
		ctx context.Context,
		scope kmsDomain.Scope,
		intent kmsDomain.KeyIntent,
		algorithm string,
		material []byte,
	) (*kmsDomain.Key, error)

	// RegisterExternalKey registers a provider-managed key by reference URI.
	// External keys only support encrypt and decrypt.
	RegisterExternalKey(ctx context.Context, scope kmsDomain.Scope, ref string) (*kmsDomain.Key, error)

	// Rotate inserts a new version of the reserved key for (scope, intent).
	// Prior versions remain usable for decryption.
	Rotate(ctx context.Context, scope kmsDomain.Scope, intent kmsDomain.KeyIntent) (*kmsDomain.Key, error)

	// Encrypt encrypts plaintext under the key, returning a self-describing
	// blob for internal keys or provider ciphertext for external keys.
	Encrypt(ctx context.Context, keyID uuid.UUID, plaintext, aad []byte) ([]byte, error)

	// Decrypt reverses Encrypt. Fails closed on any malformed or tampered
	// input.
	Decrypt(ctx context.Context, keyID uuid.UUID, ciphertext, aad []byte) ([]byte, error)

	// Sign signs data with the key. An empty algorithm uses the key's
	// registered scheme; a non-empty one selects the scheme (and digest),
	// and must match the key material's family.
	Sign(ctx context.Context, keyID uuid.UUID, algorithm string, data []byte) ([]byte, error)

	// Verify reports whether signature is valid for data under the key.
	// A bad signature returns false with a nil error. The algorithm is
	// resolved the same way as for Sign.
	Verify(ctx context.Context, keyID uuid.UUID, algorithm string, data, signature []byte) (bool, error)
}
