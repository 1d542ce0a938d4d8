// Package service provides the cryptographic primitives of the key
// management service: AEAD ciphers, the envelope cipher, asymmetric
// signatures, and root key wrap strategies.
package service

import (
	"context"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg kmsDomain.Algorithm) (AEAD, error)
}

// EnvelopeCipher operates on raw key material. Symmetric operations produce
// and consume self-describing encrypted blobs; asymmetric operations work on
// PKCS#8 DER private keys.
type EnvelopeCipher interface {
	// Encrypt produces a blob binding ciphertext to its nonce and algorithm.
	// The optional aad is authenticated but not stored in the blob; the same
	// aad must be supplied to Decrypt.
	Encrypt(key []byte, alg kmsDomain.Algorithm, plaintext, aad []byte) (kmsDomain.EncryptedBlob, error)

	// Decrypt opens a blob. Fails closed with ErrDecryptionFailed on any
	// malformed input, wrong aad, or authentication failure.
	Decrypt(key []byte, blob kmsDomain.EncryptedBlob, aad []byte) ([]byte, error)

	// Sign signs data with the private key under the given algorithm.
	Sign(privateKeyDER []byte, alg kmsDomain.SigningAlgorithm, data []byte) ([]byte, error)

	// Verify reports whether signature is valid. A bad signature returns
	// false, never an error; errors are reserved for unusable keys.
	Verify(privateKeyDER []byte, alg kmsDomain.SigningAlgorithm, data, signature []byte) (bool, error)
}

// RootStrategy wraps and unwraps data-key material under the root of trust.
// The key hierarchy manager is agnostic to which strategy is configured;
// it only relies on Unwrap(Wrap(m)) == m.
type RootStrategy interface {
	Wrap(ctx context.Context, material []byte) ([]byte, error)
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)
}

// ExternalKeeper is the operation set forwarded to a third-party KMS for
// external keys, keyed by provider reference URI.
type ExternalKeeper interface {
	Encrypt(ctx context.Context, ref string, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ref string, ciphertext []byte) ([]byte, error)
}
