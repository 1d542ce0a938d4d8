// Package domain defines the core entities of the key management service:
// keys, scopes, algorithms, the root key chain, and the encrypted blob format.
package domain

// Algorithm represents the AEAD algorithm used for symmetric encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated
// Data, ensuring both confidentiality and authenticity of encrypted data.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// 256-bit key, 12-byte nonce, 16-byte authentication tag. Best on CPUs
	// with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption
	// algorithm. 256-bit key, 12-byte nonce, constant-time in software.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm converts a string to an Algorithm, rejecting unknown values.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// SigningAlgorithm represents an asymmetric signature scheme.
type SigningAlgorithm string

const (
	// RSA2048 is RSASSA-PKCS1-v1_5 with SHA-256 over a 2048-bit key.
	RSA2048 SigningAlgorithm = "rsa-2048"
	// RSA4096 is RSASSA-PKCS1-v1_5 with SHA-512 over a 4096-bit key.
	RSA4096 SigningAlgorithm = "rsa-4096"
	// ECDSAP256 is ECDSA over NIST P-256 with SHA-256, ASN.1 signatures.
	ECDSAP256 SigningAlgorithm = "ecdsa-p256"
	// ECDSAP384 is ECDSA over NIST P-384 with SHA-384, ASN.1 signatures.
	ECDSAP384 SigningAlgorithm = "ecdsa-p384"
	// Ed25519 is the edwards-curve signature scheme. Default for new keys.
	Ed25519 SigningAlgorithm = "ed25519"
)

// ParseSigningAlgorithm converts a string to a SigningAlgorithm.
func ParseSigningAlgorithm(s string) (SigningAlgorithm, error) {
	switch SigningAlgorithm(s) {
	case RSA2048, RSA4096, ECDSAP256, ECDSAP384, Ed25519:
		return SigningAlgorithm(s), nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// KeyIntent declares what a key may be used for. Operations outside a key's
// intent are rejected with an invalid-input error.
type KeyIntent string

const (
	// IntentEncryptDecrypt marks a symmetric data-encryption key.
	IntentEncryptDecrypt KeyIntent = "encrypt-decrypt"
	// IntentSignVerify marks an asymmetric signing key.
	IntentSignVerify KeyIntent = "sign-verify"
)

// ParseKeyIntent converts a string to a KeyIntent.
func ParseKeyIntent(s string) (KeyIntent, error) {
	switch KeyIntent(s) {
	case IntentEncryptDecrypt, IntentSignVerify:
		return KeyIntent(s), nil
	default:
		return "", ErrUnsupportedIntent
	}
}

// KeyType distinguishes locally generated keys from keys delegated to an
// external provider.
type KeyType string

const (
	// KeyTypeInternal keys have material generated locally and wrapped under
	// the root key.
	KeyTypeInternal KeyType = "internal"
	// KeyTypeExternal keys forward operations to a third-party KMS by
	// reference; no material is stored locally.
	KeyTypeExternal KeyType = "external"
)
