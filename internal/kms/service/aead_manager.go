package service

import (
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD
// cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if key is not 32 bytes or ErrUnsupportedAlgorithm
// if the algorithm is unknown.
func (am *AEADManagerService) CreateCipher(key []byte, alg kmsDomain.Algorithm) (AEAD, error) {
	if len(key) != 32 {
		return nil, kmsDomain.ErrInvalidKeySize
	}

	switch alg {
	case kmsDomain.AESGCM:
		return NewAESGCM(key)
	case kmsDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, kmsDomain.ErrUnsupportedAlgorithm
	}
}
