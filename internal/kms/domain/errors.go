package domain

import (
	"github.com/keyloft/keyloft/internal/errors"
)

// Key management error definitions.
//
// These domain-specific errors wrap the shared sentinels from internal/errors
// so use cases and handlers can classify them without string matching.
var (
	// ErrUnsupportedAlgorithm indicates the requested algorithm is not in the
	// configured enumeration.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrUnsupportedIntent indicates an unknown key intent.
	ErrUnsupportedIntent = errors.Wrap(errors.ErrInvalidInput, "unsupported key intent")

	// ErrIntentMismatch indicates an operation outside the key's registered
	// intent (e.g., sign with an encrypt-decrypt key).
	ErrIntentMismatch = errors.Wrap(errors.ErrInvalidInput, "operation does not match key intent")

	// ErrKeyAlgorithmMismatch indicates key material that does not match the
	// requested signing algorithm.
	ErrKeyAlgorithmMismatch = errors.Wrap(errors.ErrInvalidInput, "key does not match signing algorithm")

	// ErrPlaintextTooLarge indicates plaintext over the configured ceiling.
	ErrPlaintextTooLarge = errors.Wrap(errors.ErrInvalidInput, "plaintext exceeds maximum size")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidScope indicates a key scope naming neither or both of an
	// organization and a project.
	ErrInvalidScope = errors.Wrap(errors.ErrInvalidInput, "scope must name exactly one of org or project")

	// ErrKeyNotFound indicates the referenced key row does not exist.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrDecryptionFailed indicates a decryption or unwrap operation failed.
	// The message is deliberately fixed: wrong key, corrupted ciphertext, and
	// malformed blobs are indistinguishable from the outside.
	ErrDecryptionFailed = errors.Wrap(errors.ErrCrypto, "decryption failed")

	// ErrRootKeysNotSet indicates the ROOT_KEYS environment variable is missing.
	ErrRootKeysNotSet = errors.New("ROOT_KEYS environment variable not set")

	// ErrActiveRootKeyIDNotSet indicates ACTIVE_ROOT_KEY_ID is missing.
	ErrActiveRootKeyIDNotSet = errors.New("ACTIVE_ROOT_KEY_ID environment variable not set")

	// ErrInvalidRootKeysFormat indicates a malformed ROOT_KEYS entry.
	ErrInvalidRootKeysFormat = errors.New("invalid ROOT_KEYS format, expected id:base64key")

	// ErrInvalidRootKeyBase64 indicates a root key that is not valid base64.
	ErrInvalidRootKeyBase64 = errors.New("invalid base64 in ROOT_KEYS")

	// ErrActiveRootKeyNotFound indicates the active id names no loaded key.
	ErrActiveRootKeyNotFound = errors.New("active root key not found in chain")

	// ErrRootKeyNotFound indicates a wrapped payload references an unknown
	// root key id.
	ErrRootKeyNotFound = errors.Wrap(errors.ErrCrypto, "root key not found in chain")
)
