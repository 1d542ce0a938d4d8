package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// SoftwareRootStrategy wraps data-key material under a software root key
// chain. Wrapped payloads are serialized as "rootKeyID:base64(blob)" so old
// chain entries keep unwrapping material they wrapped before a rotation.
type SoftwareRootStrategy struct {
	chain    *kmsDomain.RootKeyChain
	envelope EnvelopeCipher
	alg      kmsDomain.Algorithm
}

// NewSoftwareRootStrategy creates a strategy over the given root key chain.
// New material is wrapped under the chain's active key with alg.
func NewSoftwareRootStrategy(
	chain *kmsDomain.RootKeyChain,
	envelope EnvelopeCipher,
	alg kmsDomain.Algorithm,
) *SoftwareRootStrategy {
	return &SoftwareRootStrategy{chain: chain, envelope: envelope, alg: alg}
}

// Wrap encrypts material under the active root key.
func (s *SoftwareRootStrategy) Wrap(ctx context.Context, material []byte) ([]byte, error) {
	rootKey, ok := s.chain.Get(s.chain.ActiveRootKeyID())
	if !ok {
		return nil, kmsDomain.ErrActiveRootKeyNotFound
	}

	blob, err := s.envelope.Encrypt(rootKey.Key, s.alg, material, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key material: %w", err)
	}

	encoded := rootKey.ID + ":" + base64.StdEncoding.EncodeToString(blob.Bytes())
	return []byte(encoded), nil
}

// Unwrap decrypts material under the root key recorded in the payload.
func (s *SoftwareRootStrategy) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	parts := strings.SplitN(string(wrapped), ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, kmsDomain.ErrDecryptionFailed
	}

	rootKey, ok := s.chain.Get(parts[0])
	if !ok {
		return nil, kmsDomain.ErrRootKeyNotFound
	}

	blobBytes, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, kmsDomain.ErrDecryptionFailed
	}

	blob, err := kmsDomain.ParseEncryptedBlob(blobBytes)
	if err != nil {
		return nil, err
	}

	return s.envelope.Decrypt(rootKey.Key, blob, nil)
}
