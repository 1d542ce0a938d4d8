package service

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"fmt"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// EnvelopeCipherService implements EnvelopeCipher. Symmetric operations bind
// the algorithm and nonce into a self-describing blob; asymmetric operations
// parse PKCS#8 private keys per call and never retain them.
type EnvelopeCipherService struct {
	aeadManager AEADManager
}

// NewEnvelopeCipher creates an EnvelopeCipherService using the provided
// AEADManager to construct cipher instances.
func NewEnvelopeCipher(aeadManager AEADManager) *EnvelopeCipherService {
	return &EnvelopeCipherService{aeadManager: aeadManager}
}

// Encrypt encrypts plaintext under key with the given AEAD algorithm and
// returns a blob carrying the algorithm tag and nonce. The aad is
// authenticated but not stored.
func (e *EnvelopeCipherService) Encrypt(
	key []byte,
	alg kmsDomain.Algorithm,
	plaintext, aad []byte,
) (kmsDomain.EncryptedBlob, error) {
	aead, err := e.aeadManager.CreateCipher(key, alg)
	if err != nil {
		return kmsDomain.EncryptedBlob{}, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return kmsDomain.EncryptedBlob{}, fmt.Errorf("failed to encrypt: %w", err)
	}

	return kmsDomain.EncryptedBlob{
		Algorithm:  alg,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Decrypt opens a blob using the algorithm recorded in its header. All
// failures collapse into ErrDecryptionFailed: the caller cannot tell a wrong
// key from corrupted ciphertext.
func (e *EnvelopeCipherService) Decrypt(key []byte, blob kmsDomain.EncryptedBlob, aad []byte) ([]byte, error) {
	aead, err := e.aeadManager.CreateCipher(key, blob.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(blob.Ciphertext, blob.Nonce, aad)
	if err != nil {
		return nil, kmsDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// Sign signs data with the PKCS#8 private key under the given algorithm.
func (e *EnvelopeCipherService) Sign(
	privateKeyDER []byte,
	alg kmsDomain.SigningAlgorithm,
	data []byte,
) ([]byte, error) {
	priv, err := x509.ParsePKCS8PrivateKey(privateKeyDER)
	if err != nil {
		return nil, kmsDomain.ErrDecryptionFailed
	}

	switch alg {
	case kmsDomain.RSA2048, kmsDomain.RSA4096:
		key, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, kmsDomain.ErrKeyAlgorithmMismatch
		}
		hash, digest := rsaDigest(alg, data)
		signature, err := rsa.SignPKCS1v15(rand.Reader, key, hash, digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}
		return signature, nil

	case kmsDomain.ECDSAP256, kmsDomain.ECDSAP384:
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, kmsDomain.ErrKeyAlgorithmMismatch
		}
		digest := ecdsaDigest(alg, data)
		signature, err := ecdsa.SignASN1(rand.Reader, key, digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}
		return signature, nil

	case kmsDomain.Ed25519:
		key, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, kmsDomain.ErrKeyAlgorithmMismatch
		}
		return ed25519.Sign(key, data), nil

	default:
		return nil, kmsDomain.ErrUnsupportedAlgorithm
	}
}

// Verify reports whether signature is valid for data under the key and
// algorithm. A bad signature returns (false, nil); errors are reserved for
// keys that cannot be parsed or do not match the algorithm.
func (e *EnvelopeCipherService) Verify(
	privateKeyDER []byte,
	alg kmsDomain.SigningAlgorithm,
	data, signature []byte,
) (bool, error) {
	priv, err := x509.ParsePKCS8PrivateKey(privateKeyDER)
	if err != nil {
		return false, kmsDomain.ErrDecryptionFailed
	}

	switch alg {
	case kmsDomain.RSA2048, kmsDomain.RSA4096:
		key, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return false, kmsDomain.ErrKeyAlgorithmMismatch
		}
		hash, digest := rsaDigest(alg, data)
		return rsa.VerifyPKCS1v15(&key.PublicKey, hash, digest, signature) == nil, nil

	case kmsDomain.ECDSAP256, kmsDomain.ECDSAP384:
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return false, kmsDomain.ErrKeyAlgorithmMismatch
		}
		digest := ecdsaDigest(alg, data)
		return ecdsa.VerifyASN1(&key.PublicKey, digest, signature), nil

	case kmsDomain.Ed25519:
		key, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return false, kmsDomain.ErrKeyAlgorithmMismatch
		}
		return ed25519.Verify(key.Public().(ed25519.PublicKey), data, signature), nil

	default:
		return false, kmsDomain.ErrUnsupportedAlgorithm
	}
}

func rsaDigest(alg kmsDomain.SigningAlgorithm, data []byte) (crypto.Hash, []byte) {
	if alg == kmsDomain.RSA4096 {
		digest := sha512.Sum512(data)
		return crypto.SHA512, digest[:]
	}
	digest := sha256.Sum256(data)
	return crypto.SHA256, digest[:]
}

func ecdsaDigest(alg kmsDomain.SigningAlgorithm, data []byte) []byte {
	if alg == kmsDomain.ECDSAP384 {
		digest := sha512.Sum384(data)
		return digest[:]
	}
	digest := sha256.Sum256(data)
	return digest[:]
}
