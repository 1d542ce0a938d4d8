package service

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// GenerateSigningKey generates a fresh private key for the given signature
// scheme and returns it as PKCS#8 DER, ready to be wrapped under the root key.
func GenerateSigningKey(alg kmsDomain.SigningAlgorithm) ([]byte, error) {
	var priv any
	var err error

	switch alg {
	case kmsDomain.RSA2048:
		priv, err = rsa.GenerateKey(rand.Reader, 2048)
	case kmsDomain.RSA4096:
		priv, err = rsa.GenerateKey(rand.Reader, 4096)
	case kmsDomain.ECDSAP256:
		priv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case kmsDomain.ECDSAP384:
		priv, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case kmsDomain.Ed25519:
		_, priv, err = ed25519.GenerateKey(rand.Reader)
	default:
		return nil, kmsDomain.ErrUnsupportedAlgorithm
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signing key: %w", err)
	}
	return der, nil
}

// GenerateSymmetricKey generates a random 32-byte (256-bit) key.
func GenerateSymmetricKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
